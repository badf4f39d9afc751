package orders

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nulzo/canteen-api/internal/analytics"
	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/model"
	"github.com/nulzo/canteen-api/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var calendar = analytics.NewCalendar(330, 21)

type fixture struct {
	repo     store.Repository
	auth     auth.Service
	counters analytics.Service
	orders   Service
	now      time.Time
	employee *model.Employee
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	repo, err := sqlite.NewSQLiteStorage(filepath.Join(t.TempDir(), "orders.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	f := &fixture{repo: repo, now: now}
	clock := analytics.ClockFunc(func() time.Time { return f.now })

	f.auth = auth.NewService(zap.NewNop(), repo, auth.Config{Secret: []byte("orders-test")})
	f.counters = analytics.NewService(zap.NewNop(), repo, calendar, analytics.WithClock(clock))
	f.orders = NewService(zap.NewNop(), repo, f.counters, calendar, f.auth, WithClock(clock))

	f.employee = &model.Employee{ID: "emp-1", Name: "Ravi", Email: "ravi@example.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Employees().Create(context.Background(), f.employee))
	return f
}

func (f *fixture) today(t *testing.T) *model.Counter {
	t.Helper()
	c, err := f.counters.Today(context.Background())
	require.NoError(t, err)
	return c
}

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, calendar.Location())
}

func TestCreateOrGet(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	first, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", first.Date)
	assert.False(t, first.OrderedBreakfast)

	second, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	f.now = at(2026, time.March, 6, 8, 0)
	third, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, "2026-03-06", third.Date)

	_, err = f.orders.CreateOrGet(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGet_IncludesEmployee(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	o, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EmployeeName)
	assert.Equal(t, "Ravi", *got.EmployeeName)
	assert.Equal(t, "ravi@example.com", *got.EmployeeEmail)

	_, err = f.orders.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggle_UpdatesCounters(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	o, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	updated, err := f.orders.Toggle(ctx, o.ID, FieldOrderedBreakfast)
	require.NoError(t, err)
	assert.True(t, updated.OrderedBreakfast)
	assert.Equal(t, 1, f.today(t).BreakfastCount)

	updated, err = f.orders.Toggle(ctx, o.ID, FieldOrderedBreakfast)
	require.NoError(t, err)
	assert.False(t, updated.OrderedBreakfast)
	assert.Equal(t, 0, f.today(t).BreakfastCount)

	_, err = f.orders.Toggle(ctx, o.ID, FieldServedDinner)
	require.NoError(t, err)
	assert.Equal(t, 1, f.today(t).DinnerCount)
}

func TestToggle_UntrackedFlagsLeaveCounters(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	o, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	for _, field := range []Field{FieldOrderedSnack, FieldServedBreakfast, FieldServedLunch} {
		updated, err := f.orders.Toggle(ctx, o.ID, field)
		require.NoError(t, err)
		flag, _ := field.flag(updated)
		assert.True(t, *flag, string(field))
	}

	c := f.today(t)
	assert.Zero(t, c.BreakfastCount)
	assert.Zero(t, c.LunchCount)
	assert.Zero(t, c.DinnerCount)
}

func TestToggle_Rejects(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	o, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	_, err = f.orders.Toggle(ctx, o.ID, Field("ordered_dinner"))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = f.orders.Toggle(ctx, "missing", FieldOrderedLunch)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func boolp(b bool) *bool { return &b }

func TestUpdate(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	o, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	patch := Patch{OrderedLunch: boolp(true), ServedDinner: boolp(true), OrderedSnack: boolp(true)}
	updated, err := f.orders.Update(ctx, o.ID, patch)
	require.NoError(t, err)
	assert.True(t, updated.OrderedLunch)
	assert.True(t, updated.ServedDinner)
	assert.True(t, updated.OrderedSnack)
	assert.False(t, updated.OrderedBreakfast)

	c := f.today(t)
	assert.Equal(t, 1, c.LunchCount)
	assert.Equal(t, 1, c.DinnerCount)

	// same values again are not transitions
	_, err = f.orders.Update(ctx, o.ID, patch)
	require.NoError(t, err)
	c = f.today(t)
	assert.Equal(t, 1, c.LunchCount)
	assert.Equal(t, 1, c.DinnerCount)

	_, err = f.orders.Update(ctx, o.ID, Patch{OrderedLunch: boolp(false)})
	require.NoError(t, err)
	assert.Equal(t, 0, f.today(t).LunchCount)

	_, err = f.orders.Update(ctx, "missing", patch)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggle_TriggersMonthlyRollup(t *testing.T) {
	f := newFixture(t, at(2026, time.April, 2, 21, 30))
	ctx := context.Background()

	require.NoError(t, f.repo.Counters().EnsureDaily(ctx, "2026-03-10"))
	require.NoError(t, f.repo.Counters().AdjustDaily(ctx, "2026-03-10", model.Delta{Breakfast: 4}))

	o, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)
	_, err = f.orders.Toggle(ctx, o.ID, FieldOrderedLunch)
	require.NoError(t, err)

	m, err := f.counters.GetMonth(ctx, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, m.BreakfastCount)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	o, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, o.ID))
	_, err = f.orders.Get(ctx, o.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, f.orders.Delete(ctx, o.ID), store.ErrNotFound)
}

func TestListByDateAndEmployee(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	other := &model.Employee{ID: "emp-2", Name: "Anita", Email: "anita@example.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, f.repo.Employees().Create(ctx, other))

	_, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)
	_, err = f.orders.CreateOrGet(ctx, "emp-2")
	require.NoError(t, err)
	f.now = at(2026, time.March, 6, 8, 0)
	_, err = f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	fifth, err := f.orders.ListByDate(ctx, "2026-03-05")
	require.NoError(t, err)
	assert.Len(t, fifth, 2)

	_, err = f.orders.ListByDate(ctx, "03/05/2026")
	assert.ErrorIs(t, err, analytics.ErrInvalidDate)

	mine, err := f.orders.ListByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2026-03-06", mine[0].Date)
}

func TestTodaySummary(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	other := &model.Employee{ID: "emp-2", Name: "Anita", Email: "anita@example.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, f.repo.Employees().Create(ctx, other))

	a, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)
	b, err := f.orders.CreateOrGet(ctx, "emp-2")
	require.NoError(t, err)

	_, err = f.orders.Update(ctx, a.ID, Patch{OrderedBreakfast: boolp(true), ServedBreakfast: boolp(true), OrderedSnack: boolp(true)})
	require.NoError(t, err)
	_, err = f.orders.Update(ctx, b.ID, Patch{OrderedBreakfast: boolp(true), OrderedLunch: boolp(true), ServedDinner: boolp(true)})
	require.NoError(t, err)

	sum, err := f.orders.TodaySummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", sum.Date)
	assert.Equal(t, 2, sum.TotalOrders)
	assert.Equal(t, MealCount{Ordered: 2, Served: 1}, sum.Breakfast)
	assert.Equal(t, MealCount{Ordered: 1, Served: 0}, sum.Lunch)
	assert.Equal(t, 1, sum.Snack.Ordered)
	assert.Equal(t, 1, sum.Dinner.Served)
}

func TestOrderIDByToken(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	_, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)
	f.now = at(2026, time.March, 6, 8, 0)
	latest, err := f.orders.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	token, err := f.auth.IssueToken(auth.RoleEmployee, "ravi@example.com", "emp-1")
	require.NoError(t, err)

	id, err := f.orders.OrderIDByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, id)

	_, err = f.orders.OrderIDByToken(ctx, "bogus")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	stranger, err := f.auth.IssueToken(auth.RoleEmployee, "x@example.com", "emp-404")
	require.NoError(t, err)
	_, err = f.orders.OrderIDByToken(ctx, stranger)
	assert.ErrorIs(t, err, store.ErrNotFound)

	admin, err := f.auth.IssueToken(auth.RoleAdmin, "chef@example.com", "emp-1")
	require.NoError(t, err)
	_, err = f.orders.OrderIDByToken(ctx, admin)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

type mockCounters struct {
	mock.Mock
	analytics.Service
}

func (m *mockCounters) ApplyChanges(ctx context.Context, changes analytics.Changes) (*model.Counter, error) {
	args := m.Called(ctx, changes)
	c, _ := args.Get(0).(*model.Counter)
	return c, args.Error(1)
}

func (m *mockCounters) EvaluateMonthlyRollup(ctx context.Context) (*analytics.RollupResult, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*analytics.RollupResult)
	return r, args.Error(1)
}

func TestRecordChanges_RollupFailureIsNotReturned(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	counters := new(mockCounters)
	counters.On("ApplyChanges", mock.Anything, analytics.Changes{
		analytics.MealLunch: {Old: false, New: true},
	}).Return(&model.Counter{}, nil).Once()
	counters.On("EvaluateMonthlyRollup", mock.Anything).Return(nil, errors.New("disk on fire")).Once()

	svc := NewService(zap.NewNop(), f.repo, counters, calendar, f.auth,
		WithClock(analytics.ClockFunc(func() time.Time { return f.now })))

	o, err := svc.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	updated, err := svc.Toggle(ctx, o.ID, FieldOrderedLunch)
	require.NoError(t, err)
	assert.True(t, updated.OrderedLunch)
	counters.AssertExpectations(t)
}

func TestRecordChanges_CounterFailureIsReturned(t *testing.T) {
	f := newFixture(t, at(2026, time.March, 5, 8, 0))
	ctx := context.Background()

	counters := new(mockCounters)
	counters.On("ApplyChanges", mock.Anything, mock.Anything).Return(nil, errors.New("locked")).Once()

	svc := NewService(zap.NewNop(), f.repo, counters, calendar, f.auth,
		WithClock(analytics.ClockFunc(func() time.Time { return f.now })))

	o, err := svc.CreateOrGet(ctx, "emp-1")
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, o.ID, FieldServedDinner)
	assert.EqualError(t, err, "locked")
	counters.AssertNotCalled(t, "EvaluateMonthlyRollup", mock.Anything)
}
