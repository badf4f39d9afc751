package store

import (
	"context"
	"errors"

	"github.com/nulzo/canteen-api/internal/store/model"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("record already exists")
)

// Repository is the main contract for the data layer.
type Repository interface {
	Counters() CounterRepository
	Orders() OrderRepository
	Employees() EmployeeRepository
	Admins() AdminRepository
	Items() ItemRepository
	TelegramChats() TelegramChatRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

type CounterRepository interface {
	// EnsureDaily inserts a zeroed daily counter for date unless one exists.
	EnsureDaily(ctx context.Context, date string) error
	// GetDaily returns the daily counter for date (YYYY-MM-DD).
	GetDaily(ctx context.Context, date string) (*model.Counter, error)
	// AdjustDaily applies delta to the daily counter in one statement, flooring each count at zero.
	AdjustDaily(ctx context.Context, date string, delta model.Delta) error
	// ListDaily returns daily counters with from <= date <= to, oldest first.
	ListDaily(ctx context.Context, from, to string) ([]model.Counter, error)
	// SumDaily sums daily counters with from <= date <= to; missing days count as zero.
	SumDaily(ctx context.Context, from, to string) (*model.Totals, error)

	// CreateMonthly inserts a monthly counter. Returns ErrConflict if one exists for its year/month.
	CreateMonthly(ctx context.Context, c *model.Counter) error
	GetMonthly(ctx context.Context, year, month int) (*model.Counter, error)
	// LatestMonthly returns the most recently created monthly counter by date.
	LatestMonthly(ctx context.Context) (*model.Counter, error)
	ListMonthly(ctx context.Context) ([]model.Counter, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.DayOrder) error
	Get(ctx context.Context, id string) (*model.DayOrder, error)
	GetForEmployee(ctx context.Context, employeeID, date string) (*model.DayOrder, error)
	// LatestForEmployee returns the employee's newest order.
	LatestForEmployee(ctx context.Context, employeeID string) (*model.DayOrder, error)
	ListByDate(ctx context.Context, date string) ([]model.DayOrder, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]model.DayOrder, error)
	// UpdateFlags writes all six flags of order.
	UpdateFlags(ctx context.Context, order *model.DayOrder) error
	Delete(ctx context.Context, id string) error
}

type EmployeeRepository interface {
	Create(ctx context.Context, e *model.Employee) error
	Get(ctx context.Context, id string) (*model.Employee, error)
	List(ctx context.Context) ([]model.Employee, error)
}

type AdminRepository interface {
	Create(ctx context.Context, a *model.Admin) error
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	// List returns all items, or only those for servingDay when it is non-empty.
	List(ctx context.Context, servingDay string) ([]model.Item, error)
}

type TelegramChatRepository interface {
	Create(ctx context.Context, chat *model.TelegramChat) error
	Exists(ctx context.Context, chatID int64) (bool, error)
	List(ctx context.Context) ([]model.TelegramChat, error)
}
