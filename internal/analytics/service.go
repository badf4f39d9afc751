package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/cache"
	"github.com/nulzo/canteen-api/internal/store/lock"
	"github.com/nulzo/canteen-api/internal/store/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/nulzo/canteen-api/internal/analytics")

// ErrInvalidRange is returned when a range ends before it starts.
var ErrInvalidRange = errors.New("start date is after end date")

const (
	rollupLockKey = "lock:analytics:monthly-rollup"
	rollupLockTTL = 30 * time.Second
)

// Meal names a tracked counter.
type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
	MealDinner    Meal = "dinner"
)

// Transition is the before/after value of one order flag.
type Transition struct {
	Old bool `json:"old"`
	New bool `json:"new"`
}

// Changes maps a tracked meal to its flag transition. Breakfast and lunch
// follow the ordered flags, dinner follows served_dinner.
type Changes map[Meal]Transition

// Delta turns the transitions into counter adjustments. Only genuine
// false->true and true->false transitions move a count.
func (c Changes) Delta() model.Delta {
	return model.Delta{
		Breakfast: step(c, MealBreakfast),
		Lunch:     step(c, MealLunch),
		Dinner:    step(c, MealDinner),
	}
}

func step(c Changes, meal Meal) int {
	t, ok := c[meal]
	if !ok {
		return 0
	}
	switch {
	case !t.Old && t.New:
		return 1
	case t.Old && !t.New:
		return -1
	default:
		return 0
	}
}

// RollupReason explains the outcome of EvaluateMonthlyRollup.
type RollupReason string

const (
	RollupCreated       RollupReason = "created"
	RollupBeforeCutoff  RollupReason = "before_cutoff"
	RollupAlreadyExists RollupReason = "already_exists"
	RollupTooSoon       RollupReason = "too_soon"
	RollupInProgress    RollupReason = "in_progress"
)

type RollupResult struct {
	Created bool           `json:"created"`
	Reason  RollupReason   `json:"reason"`
	Counter *model.Counter `json:"analytics,omitempty"`
}

// RollupListener is told about every monthly counter right after it is written.
type RollupListener interface {
	OnMonthlyRollup(ctx context.Context, counter *model.Counter) error
}

type DayView struct {
	Date string `json:"date"`
	model.Totals
}

type MonthView struct {
	Month int `json:"month"`
	Year  int `json:"year"`
	model.Totals
}

type Summary struct {
	Today     DayView   `json:"today"`
	ThisMonth MonthView `json:"thisMonth"`
}

type Service interface {
	// GetOrCreateDaily returns the daily counter for the reference day of ref, creating it at zero.
	GetOrCreateDaily(ctx context.Context, ref time.Time) (*model.Counter, error)
	// Today is GetOrCreateDaily for the current instant.
	Today(ctx context.Context) (*model.Counter, error)
	// ApplyChanges adjusts today's counter by the flag transitions.
	ApplyChanges(ctx context.Context, changes Changes) (*model.Counter, error)
	// EvaluateMonthlyRollup writes last month's counter when it is due.
	EvaluateMonthlyRollup(ctx context.Context) (*RollupResult, error)

	GetByDate(ctx context.Context, date string) (*model.Counter, error)
	GetRange(ctx context.Context, start, end string) ([]model.Counter, error)
	ListMonthly(ctx context.Context) ([]model.Counter, error)
	GetMonth(ctx context.Context, year, month int) (*model.Counter, error)
	GetSummary(ctx context.Context) (*Summary, error)
}

type Option func(*service)

func WithClock(c Clock) Option {
	return func(s *service) { s.clock = c }
}

// WithCache caches monthly counters, which never change once written.
func WithCache(c cache.CacheService, ttl time.Duration) Option {
	return func(s *service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithLocker(l lock.Locker) Option {
	return func(s *service) { s.locker = l }
}

func WithRollupListener(l RollupListener) Option {
	return func(s *service) { s.listeners = append(s.listeners, l) }
}

type service struct {
	logger    *zap.Logger
	repo      store.Repository
	calendar  Calendar
	clock     Clock
	cache     cache.CacheService
	cacheTTL  time.Duration
	locker    lock.Locker
	listeners []RollupListener
}

func NewService(logger *zap.Logger, repo store.Repository, calendar Calendar, opts ...Option) Service {
	s := &service{
		logger:   logger,
		repo:     repo,
		calendar: calendar,
		clock:    SystemClock,
		cache:    cache.NewMemoryCache(),
		cacheTTL: 24 * time.Hour,
		locker:   lock.NewLocalLocker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) GetOrCreateDaily(ctx context.Context, ref time.Time) (*model.Counter, error) {
	day := s.calendar.Day(ref)

	var counter *model.Counter
	err := s.repo.WithTx(ctx, func(repo store.Repository) error {
		if err := repo.Counters().EnsureDaily(ctx, day); err != nil {
			return err
		}
		c, err := repo.Counters().GetDaily(ctx, day)
		counter = c
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load daily analytics for %s: %w", day, err)
	}
	return counter, nil
}

func (s *service) Today(ctx context.Context) (*model.Counter, error) {
	return s.GetOrCreateDaily(ctx, s.clock.Now())
}

func (s *service) ApplyChanges(ctx context.Context, changes Changes) (*model.Counter, error) {
	// counters follow the current day, not the day of the order being edited
	day := s.calendar.Day(s.clock.Now())
	delta := changes.Delta()

	var counter *model.Counter
	err := s.repo.WithTx(ctx, func(repo store.Repository) error {
		if err := repo.Counters().EnsureDaily(ctx, day); err != nil {
			return err
		}
		if !delta.IsZero() {
			if err := repo.Counters().AdjustDaily(ctx, day, delta); err != nil {
				return err
			}
		}
		c, err := repo.Counters().GetDaily(ctx, day)
		counter = c
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update daily analytics for %s: %w", day, err)
	}

	s.logger.Debug("Daily analytics updated",
		zap.String("date", day),
		zap.Int("breakfast_delta", delta.Breakfast),
		zap.Int("lunch_delta", delta.Lunch),
		zap.Int("dinner_delta", delta.Dinner),
	)

	return counter, nil
}

func (s *service) EvaluateMonthlyRollup(ctx context.Context) (*RollupResult, error) {
	ctx, span := tracer.Start(ctx, "analytics.EvaluateMonthlyRollup")
	defer span.End()

	res, err := s.evaluateMonthlyRollup(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("rollup.reason", string(res.Reason)))
	return res, nil
}

func (s *service) evaluateMonthlyRollup(ctx context.Context) (*RollupResult, error) {
	now := s.calendar.Local(s.clock.Now())

	if !s.calendar.PastCutoff(now) {
		return &RollupResult{Reason: RollupBeforeCutoff}, nil
	}

	lk, err := s.locker.Obtain(ctx, rollupLockKey, rollupLockTTL)
	if errors.Is(err, lock.ErrNotObtained) {
		return &RollupResult{Reason: RollupInProgress}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain rollup lock: %w", err)
	}
	defer func() {
		_ = lk.Release(context.Background())
	}()

	year, month := now.Year(), int(now.Month())
	prevYear, prevMonth := PreviousMonth(year, month)

	counters := s.repo.Counters()

	if _, err := counters.GetMonthly(ctx, prevYear, prevMonth); err == nil {
		return &RollupResult{Reason: RollupAlreadyExists}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check monthly analytics: %w", err)
	}

	last, err := counters.LatestMonthly(ctx)
	switch {
	case err == nil:
		created, perr := time.ParseInLocation(DateLayout, last.Date, s.calendar.Location())
		if perr != nil {
			return nil, fmt.Errorf("corrupt monthly analytics date %q: %w", last.Date, perr)
		}
		if MonthsBetween(created.Year(), int(created.Month()), year, month) < 1 {
			return &RollupResult{Reason: RollupTooSoon}, nil
		}
	case errors.Is(err, store.ErrNotFound):
		// first rollup ever
	default:
		return nil, fmt.Errorf("failed to load latest monthly analytics: %w", err)
	}

	from, to := s.calendar.MonthBounds(prevYear, prevMonth)
	totals, err := counters.SumDaily(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum daily analytics %s..%s: %w", from, to, err)
	}

	thisMonth, _ := s.calendar.MonthBounds(year, month)
	counter := &model.Counter{
		Date:           thisMonth,
		Year:           &prevYear,
		Month:          &prevMonth,
		BreakfastCount: totals.BreakfastCount,
		LunchCount:     totals.LunchCount,
		DinnerCount:    totals.DinnerCount,
	}

	if err := counters.CreateMonthly(ctx, counter); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return &RollupResult{Reason: RollupAlreadyExists}, nil
		}
		return nil, fmt.Errorf("failed to create monthly analytics: %w", err)
	}

	s.logger.Info("Monthly analytics created",
		zap.Int("year", prevYear),
		zap.Int("month", prevMonth),
		zap.Int("breakfast", counter.BreakfastCount),
		zap.Int("lunch", counter.LunchCount),
		zap.Int("dinner", counter.DinnerCount),
	)

	for _, l := range s.listeners {
		if err := l.OnMonthlyRollup(ctx, counter); err != nil {
			s.logger.Warn("Rollup listener failed", zap.Error(err))
		}
	}

	return &RollupResult{Created: true, Reason: RollupCreated, Counter: counter}, nil
}

func (s *service) GetByDate(ctx context.Context, date string) (*model.Counter, error) {
	day, err := s.calendar.ParseDay(date)
	if err != nil {
		return nil, err
	}
	return s.repo.Counters().GetDaily(ctx, day)
}

func (s *service) GetRange(ctx context.Context, start, end string) ([]model.Counter, error) {
	from, err := s.calendar.ParseDay(start)
	if err != nil {
		return nil, err
	}
	to, err := s.calendar.ParseDay(end)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, ErrInvalidRange
	}
	return s.repo.Counters().ListDaily(ctx, from, to)
}

func (s *service) ListMonthly(ctx context.Context) ([]model.Counter, error) {
	return s.repo.Counters().ListMonthly(ctx)
}

func (s *service) GetMonth(ctx context.Context, year, month int) (*model.Counter, error) {
	key := fmt.Sprintf("analytics:monthly:%04d-%02d", year, month)

	var cached model.Counter
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Monthly analytics cache read failed", zap.String("key", key), zap.Error(err))
	}

	counter, err := s.repo.Counters().GetMonthly(ctx, year, month)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, counter, s.cacheTTL); err != nil {
		s.logger.Warn("Monthly analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
	return counter, nil
}

func (s *service) GetSummary(ctx context.Context) (*Summary, error) {
	now := s.calendar.Local(s.clock.Now())

	today, err := s.GetOrCreateDaily(ctx, now)
	if err != nil {
		return nil, err
	}

	from, to := s.calendar.MonthBounds(now.Year(), int(now.Month()))
	totals, err := s.repo.Counters().SumDaily(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum month to date: %w", err)
	}

	return &Summary{
		Today: DayView{
			Date: today.Date,
			Totals: model.Totals{
				BreakfastCount: today.BreakfastCount,
				LunchCount:     today.LunchCount,
				DinnerCount:    today.DinnerCount,
			},
		},
		ThisMonth: MonthView{
			Month:  int(now.Month()),
			Year:   now.Year(),
			Totals: *totals,
		},
	}, nil
}
