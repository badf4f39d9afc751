package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/canteen-api/internal/analytics"
	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/model"
	"go.uber.org/zap"
)

var ErrInvalidField = errors.New("invalid field name")

// Field names a boolean flag of a day order.
type Field string

const (
	FieldOrderedBreakfast Field = "ordered_breakfast"
	FieldOrderedLunch     Field = "ordered_lunch"
	FieldOrderedSnack     Field = "ordered_snack"
	FieldServedBreakfast  Field = "served_breakfast"
	FieldServedLunch      Field = "served_lunch"
	FieldServedDinner     Field = "served_dinner"
)

// trackedMeals maps the flags that feed the analytics counters onto their meal.
var trackedMeals = map[Field]analytics.Meal{
	FieldOrderedBreakfast: analytics.MealBreakfast,
	FieldOrderedLunch:     analytics.MealLunch,
	FieldServedDinner:     analytics.MealDinner,
}

func (f Field) flag(o *model.DayOrder) (*bool, error) {
	switch f {
	case FieldOrderedBreakfast:
		return &o.OrderedBreakfast, nil
	case FieldOrderedLunch:
		return &o.OrderedLunch, nil
	case FieldOrderedSnack:
		return &o.OrderedSnack, nil
	case FieldServedBreakfast:
		return &o.ServedBreakfast, nil
	case FieldServedLunch:
		return &o.ServedLunch, nil
	case FieldServedDinner:
		return &o.ServedDinner, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidField, string(f))
}

// Value reports the state of the flag on o.
func (f Field) Value(o *model.DayOrder) (bool, error) {
	p, err := f.flag(o)
	if err != nil {
		return false, err
	}
	return *p, nil
}

// Patch carries the flags to overwrite; nil leaves a flag unchanged.
type Patch struct {
	OrderedBreakfast *bool `json:"ordered_breakfast"`
	OrderedLunch     *bool `json:"ordered_lunch"`
	OrderedSnack     *bool `json:"ordered_snack"`
	ServedBreakfast  *bool `json:"served_breakfast"`
	ServedLunch      *bool `json:"served_lunch"`
	ServedDinner     *bool `json:"served_dinner"`
}

func (p Patch) fields() map[Field]*bool {
	return map[Field]*bool{
		FieldOrderedBreakfast: p.OrderedBreakfast,
		FieldOrderedLunch:     p.OrderedLunch,
		FieldOrderedSnack:     p.OrderedSnack,
		FieldServedBreakfast:  p.ServedBreakfast,
		FieldServedLunch:      p.ServedLunch,
		FieldServedDinner:     p.ServedDinner,
	}
}

type MealCount struct {
	Ordered int `json:"ordered"`
	Served  int `json:"served"`
}

type Summary struct {
	Date        string    `json:"date"`
	TotalOrders int       `json:"total_orders"`
	Breakfast   MealCount `json:"breakfast"`
	Lunch       MealCount `json:"lunch"`
	Snack       struct {
		Ordered int `json:"ordered"`
	} `json:"snack"`
	Dinner struct {
		Served int `json:"served"`
	} `json:"dinner"`
}

// TokenVerifier resolves a bearer token to its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type Service interface {
	// CreateOrGet returns the employee's order for today, creating an empty one.
	CreateOrGet(ctx context.Context, employeeID string) (*model.DayOrder, error)
	Get(ctx context.Context, id string) (*model.DayOrder, error)
	ListByDate(ctx context.Context, date string) ([]model.DayOrder, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]model.DayOrder, error)
	// Toggle flips one flag and returns the updated order.
	Toggle(ctx context.Context, id string, field Field) (*model.DayOrder, error)
	Update(ctx context.Context, id string, patch Patch) (*model.DayOrder, error)
	Delete(ctx context.Context, id string) error
	TodaySummary(ctx context.Context) (*Summary, error)
	// OrderIDByToken returns the latest order id of the employee named by an employee token.
	OrderIDByToken(ctx context.Context, token string) (string, error)
}

type Option func(*service)

func WithClock(c analytics.Clock) Option {
	return func(s *service) { s.clock = c }
}

type service struct {
	logger   *zap.Logger
	repo     store.Repository
	counters analytics.Service
	calendar analytics.Calendar
	tokens   TokenVerifier
	clock    analytics.Clock
}

func NewService(logger *zap.Logger, repo store.Repository, counters analytics.Service, calendar analytics.Calendar, tokens TokenVerifier, opts ...Option) Service {
	s := &service{
		logger:   logger,
		repo:     repo,
		counters: counters,
		calendar: calendar,
		tokens:   tokens,
		clock:    analytics.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) today() string {
	return s.calendar.Day(s.clock.Now())
}

func (s *service) CreateOrGet(ctx context.Context, employeeID string) (*model.DayOrder, error) {
	day := s.today()

	var order *model.DayOrder
	err := s.repo.WithTx(ctx, func(repo store.Repository) error {
		if _, err := repo.Employees().Get(ctx, employeeID); err != nil {
			return fmt.Errorf("employee %s: %w", employeeID, err)
		}

		existing, err := repo.Orders().GetForEmployee(ctx, employeeID, day)
		if err == nil {
			order = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		order = &model.DayOrder{
			ID:         uuid.New().String(),
			EmployeeID: employeeID,
			Date:       day,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return repo.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id string) (*model.DayOrder, error) {
	return s.repo.Orders().Get(ctx, id)
}

func (s *service) ListByDate(ctx context.Context, date string) ([]model.DayOrder, error) {
	day, err := s.calendar.ParseDay(date)
	if err != nil {
		return nil, err
	}
	return s.repo.Orders().ListByDate(ctx, day)
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string) ([]model.DayOrder, error) {
	return s.repo.Orders().ListByEmployee(ctx, employeeID)
}

func (s *service) Toggle(ctx context.Context, id string, field Field) (*model.DayOrder, error) {
	if _, err := field.flag(&model.DayOrder{}); err != nil {
		return nil, err
	}

	changes := analytics.Changes{}
	var order *model.DayOrder
	err := s.repo.WithTx(ctx, func(repo store.Repository) error {
		o, err := repo.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		flag, _ := field.flag(o)
		old := *flag
		*flag = !old

		if meal, ok := trackedMeals[field]; ok {
			changes[meal] = analytics.Transition{Old: old, New: *flag}
		}

		order = o
		return repo.Orders().UpdateFlags(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	if err := s.recordChanges(ctx, changes); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Update(ctx context.Context, id string, patch Patch) (*model.DayOrder, error) {
	changes := analytics.Changes{}
	var order *model.DayOrder
	err := s.repo.WithTx(ctx, func(repo store.Repository) error {
		o, err := repo.Orders().Get(ctx, id)
		if err != nil {
			return err
		}

		dirty := false
		for field, value := range patch.fields() {
			if value == nil {
				continue
			}
			flag, _ := field.flag(o)
			if *flag == *value {
				continue
			}
			if meal, ok := trackedMeals[field]; ok {
				changes[meal] = analytics.Transition{Old: *flag, New: *value}
			}
			*flag = *value
			dirty = true
		}

		order = o
		if !dirty {
			return nil
		}
		return repo.Orders().UpdateFlags(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	if err := s.recordChanges(ctx, changes); err != nil {
		return nil, err
	}
	return order, nil
}

// recordChanges forwards tracked flag transitions to the counters and then
// gives the monthly rollup a chance to run.
func (s *service) recordChanges(ctx context.Context, changes analytics.Changes) error {
	if len(changes) == 0 {
		return nil
	}

	if _, err := s.counters.ApplyChanges(ctx, changes); err != nil {
		return err
	}

	// the order is already committed; a failed rollup is retried on the next write
	res, err := s.counters.EvaluateMonthlyRollup(ctx)
	if err != nil {
		s.logger.Error("Monthly rollup evaluation failed", zap.Error(err))
		return nil
	}
	if res.Created {
		s.logger.Info("Monthly rollup created after order update",
			zap.Intp("year", res.Counter.Year),
			zap.Intp("month", res.Counter.Month),
		)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Orders().Delete(ctx, id)
}

func (s *service) TodaySummary(ctx context.Context) (*Summary, error) {
	day := s.today()
	orders, err := s.repo.Orders().ListByDate(ctx, day)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Date: day, TotalOrders: len(orders)}
	for _, o := range orders {
		sum.Breakfast.Ordered += btoi(o.OrderedBreakfast)
		sum.Breakfast.Served += btoi(o.ServedBreakfast)
		sum.Lunch.Ordered += btoi(o.OrderedLunch)
		sum.Lunch.Served += btoi(o.ServedLunch)
		sum.Snack.Ordered += btoi(o.OrderedSnack)
		sum.Dinner.Served += btoi(o.ServedDinner)
	}
	return sum, nil
}

func (s *service) OrderIDByToken(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}
	if err := claims.Require(auth.RoleEmployee); err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return "", fmt.Errorf("%w: missing id claim", auth.ErrInvalidToken)
	}

	order, err := s.repo.Orders().LatestForEmployee(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
