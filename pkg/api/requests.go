package api

type CreateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required,max=120"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateEmployeeRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,max=32"`
}

type AddItemRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=500"`
	ServingDay  string `json:"serving_day" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

type CreateOrderRequest struct {
	EmployeeID string `json:"emp_id" binding:"required"`
}

type OrderByTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type ToggleRequest struct {
	Field string `json:"field" binding:"required"`
}

// UpdateOrderRequest only touches the flags present in the body.
type UpdateOrderRequest struct {
	OrderedBreakfast *bool `json:"ordered_breakfast"`
	OrderedLunch     *bool `json:"ordered_lunch"`
	OrderedSnack     *bool `json:"ordered_snack"`
	ServedBreakfast  *bool `json:"served_breakfast"`
	ServedLunch      *bool `json:"served_lunch"`
	ServedDinner     *bool `json:"served_dinner"`
}

// RangeQuery binds /analytics/range?start=&end=.
type RangeQuery struct {
	Start string `form:"start" json:"start" binding:"required,day"`
	End   string `form:"end" json:"end" binding:"required,day"`
}

type ItemsQuery struct {
	ServingDay string `form:"serving_day" json:"serving_day" binding:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}
