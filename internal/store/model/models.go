package model

import (
	"time"
)

// Counter kinds share the analytics table.
const (
	KindDaily   = "daily"
	KindMonthly = "monthly"
)

// Counter is one row of the analytics table. Daily rows are keyed by Date,
// monthly rows by Year/Month (the month they summarise) and carry the first
// day of the month they were created in as Date.
type Counter struct {
	ID             int64     `db:"id" json:"id"`
	Kind           string    `db:"kind" json:"type"`
	Date           string    `db:"date" json:"date"`
	Year           *int      `db:"year" json:"year,omitempty"`
	Month          *int      `db:"month" json:"month,omitempty"`
	BreakfastCount int       `db:"breakfast_count" json:"breakfastCount"`
	LunchCount     int       `db:"lunch_count" json:"lunchCount"`
	DinnerCount    int       `db:"dinner_count" json:"dinnerCount"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Totals is a plain sum of the three tracked meal counts.
type Totals struct {
	BreakfastCount int `db:"breakfast_count" json:"breakfastCount"`
	LunchCount     int `db:"lunch_count" json:"lunchCount"`
	DinnerCount    int `db:"dinner_count" json:"dinnerCount"`
}

// Delta is a signed adjustment applied atomically to a daily counter.
type Delta struct {
	Breakfast int
	Lunch     int
	Dinner    int
}

func (d Delta) IsZero() bool {
	return d.Breakfast == 0 && d.Lunch == 0 && d.Dinner == 0
}

// Employee is a canteen user who places day orders.
type Employee struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// DayOrder holds one employee's order and serving flags for a single day.
type DayOrder struct {
	ID               string    `db:"id" json:"id"`
	EmployeeID       string    `db:"employee_id" json:"emp_id"`
	Date             string    `db:"date" json:"date"`
	OrderedBreakfast bool      `db:"ordered_breakfast" json:"ordered_breakfast"`
	OrderedLunch     bool      `db:"ordered_lunch" json:"ordered_lunch"`
	OrderedSnack     bool      `db:"ordered_snack" json:"ordered_snack"`
	ServedBreakfast  bool      `db:"served_breakfast" json:"served_breakfast"`
	ServedLunch      bool      `db:"served_lunch" json:"served_lunch"`
	ServedDinner     bool      `db:"served_dinner" json:"served_dinner"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`

	// Joined from employees, not stored on day_orders
	EmployeeName  *string `db:"employee_name" json:"employee_name,omitempty"`
	EmployeeEmail *string `db:"employee_email" json:"employee_email,omitempty"`
}

// Admin is a back-office account.
type Admin struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"fullName"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never return hash
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Item is a menu entry for a given serving day.
type Item struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	ServingDay  string    `db:"serving_day" json:"serving_day"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// TelegramChat is a chat registered to receive notifications.
type TelegramChat struct {
	ChatID    int64     `db:"chat_id" json:"chat_id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
