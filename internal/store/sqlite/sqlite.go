package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	// already inside a transaction, join it
	if _, ok := r.executor.(*sqlx.Tx); ok {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Counters() store.CounterRepository {
	return &counterRepo{db: r.executor}
}

func (r *SqliteRepository) Orders() store.OrderRepository {
	return &orderRepo{db: r.executor}
}

func (r *SqliteRepository) Employees() store.EmployeeRepository {
	return &employeeRepo{db: r.executor}
}

func (r *SqliteRepository) Admins() store.AdminRepository {
	return &adminRepo{db: r.executor}
}

func (r *SqliteRepository) Items() store.ItemRepository {
	return &itemRepo{db: r.executor}
}

func (r *SqliteRepository) TelegramChats() store.TelegramChatRepository {
	return &telegramChatRepo{db: r.executor}
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return store.ErrConflict
		}
	}
	return err
}

type counterRepo struct {
	db DB
}

func (r *counterRepo) EnsureDaily(ctx context.Context, date string) error {
	now := time.Now().UTC()
	query := `
	INSERT OR IGNORE INTO analytics (kind, date, breakfast_count, lunch_count, dinner_count, created_at, updated_at)
	VALUES (?, ?, 0, 0, 0, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, model.KindDaily, date, now, now)
	return err
}

func (r *counterRepo) GetDaily(ctx context.Context, date string) (*model.Counter, error) {
	var c model.Counter
	query := `SELECT * FROM analytics WHERE kind = ? AND date = ?`
	if err := r.db.GetContext(ctx, &c, query, model.KindDaily, date); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *counterRepo) AdjustDaily(ctx context.Context, date string, delta model.Delta) error {
	// MAX(0, ...) keeps the counts non-negative without reading the row first
	query := `
	UPDATE analytics SET
		breakfast_count = MAX(0, breakfast_count + ?),
		lunch_count = MAX(0, lunch_count + ?),
		dinner_count = MAX(0, dinner_count + ?),
		updated_at = ?
	WHERE kind = ? AND date = ?`
	res, err := r.db.ExecContext(ctx, query,
		delta.Breakfast, delta.Lunch, delta.Dinner, time.Now().UTC(),
		model.KindDaily, date,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *counterRepo) ListDaily(ctx context.Context, from, to string) ([]model.Counter, error) {
	counters := []model.Counter{}
	query := `SELECT * FROM analytics WHERE kind = ? AND date >= ? AND date <= ? ORDER BY date ASC`
	err := r.db.SelectContext(ctx, &counters, query, model.KindDaily, from, to)
	return counters, err
}

func (r *counterRepo) SumDaily(ctx context.Context, from, to string) (*model.Totals, error) {
	var t model.Totals
	query := `
		SELECT
			COALESCE(SUM(breakfast_count), 0) AS breakfast_count,
			COALESCE(SUM(lunch_count), 0) AS lunch_count,
			COALESCE(SUM(dinner_count), 0) AS dinner_count
		FROM analytics
		WHERE kind = ? AND date >= ? AND date <= ?
	`
	if err := r.db.GetContext(ctx, &t, query, model.KindDaily, from, to); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *counterRepo) CreateMonthly(ctx context.Context, c *model.Counter) error {
	c.Kind = model.KindMonthly
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
	INSERT INTO analytics (kind, date, year, month, breakfast_count, lunch_count, dinner_count, created_at, updated_at)
	VALUES (:kind, :date, :year, :month, :breakfast_count, :lunch_count, :dinner_count, :created_at, :updated_at)`
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return translate(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		c.ID = id
	}
	return nil
}

func (r *counterRepo) GetMonthly(ctx context.Context, year, month int) (*model.Counter, error) {
	var c model.Counter
	query := `SELECT * FROM analytics WHERE kind = ? AND year = ? AND month = ?`
	if err := r.db.GetContext(ctx, &c, query, model.KindMonthly, year, month); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *counterRepo) LatestMonthly(ctx context.Context) (*model.Counter, error) {
	var c model.Counter
	query := `SELECT * FROM analytics WHERE kind = ? ORDER BY date DESC, id DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &c, query, model.KindMonthly); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *counterRepo) ListMonthly(ctx context.Context) ([]model.Counter, error) {
	counters := []model.Counter{}
	query := `SELECT * FROM analytics WHERE kind = ? ORDER BY date DESC, id DESC`
	err := r.db.SelectContext(ctx, &counters, query, model.KindMonthly)
	return counters, err
}

type orderRepo struct {
	db DB
}

const orderWithEmployee = `
	SELECT o.*, e.name AS employee_name, e.email AS employee_email
	FROM day_orders o
	LEFT JOIN employees e ON e.id = o.employee_id`

func (r *orderRepo) Create(ctx context.Context, order *model.DayOrder) error {
	query := `
	INSERT INTO day_orders (
		id, employee_id, date,
		ordered_breakfast, ordered_lunch, ordered_snack,
		served_breakfast, served_lunch, served_dinner,
		created_at, updated_at
	) VALUES (
		:id, :employee_id, :date,
		:ordered_breakfast, :ordered_lunch, :ordered_snack,
		:served_breakfast, :served_lunch, :served_dinner,
		:created_at, :updated_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, order)
	return translate(err)
}

func (r *orderRepo) Get(ctx context.Context, id string) (*model.DayOrder, error) {
	var o model.DayOrder
	if err := r.db.GetContext(ctx, &o, orderWithEmployee+` WHERE o.id = ?`, id); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *orderRepo) GetForEmployee(ctx context.Context, employeeID, date string) (*model.DayOrder, error) {
	var o model.DayOrder
	query := `SELECT * FROM day_orders WHERE employee_id = ? AND date = ?`
	if err := r.db.GetContext(ctx, &o, query, employeeID, date); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *orderRepo) LatestForEmployee(ctx context.Context, employeeID string) (*model.DayOrder, error) {
	var o model.DayOrder
	query := `SELECT * FROM day_orders WHERE employee_id = ? ORDER BY date DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &o, query, employeeID); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *orderRepo) ListByDate(ctx context.Context, date string) ([]model.DayOrder, error) {
	orders := []model.DayOrder{}
	err := r.db.SelectContext(ctx, &orders, orderWithEmployee+` WHERE o.date = ? ORDER BY o.created_at ASC`, date)
	return orders, err
}

func (r *orderRepo) ListByEmployee(ctx context.Context, employeeID string) ([]model.DayOrder, error) {
	orders := []model.DayOrder{}
	query := `SELECT * FROM day_orders WHERE employee_id = ? ORDER BY date DESC`
	err := r.db.SelectContext(ctx, &orders, query, employeeID)
	return orders, err
}

func (r *orderRepo) UpdateFlags(ctx context.Context, order *model.DayOrder) error {
	order.UpdatedAt = time.Now().UTC()
	query := `
	UPDATE day_orders SET
		ordered_breakfast = :ordered_breakfast,
		ordered_lunch = :ordered_lunch,
		ordered_snack = :ordered_snack,
		served_breakfast = :served_breakfast,
		served_lunch = :served_lunch,
		served_dinner = :served_dinner,
		updated_at = :updated_at
	WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, order)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *orderRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM day_orders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type employeeRepo struct {
	db DB
}

func (r *employeeRepo) Create(ctx context.Context, e *model.Employee) error {
	query := `
	INSERT INTO employees (id, name, email, phone_number, created_at)
	VALUES (:id, :name, :email, :phone_number, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, e)
	return translate(err)
}

func (r *employeeRepo) Get(ctx context.Context, id string) (*model.Employee, error) {
	var e model.Employee
	if err := r.db.GetContext(ctx, &e, `SELECT * FROM employees WHERE id = ?`, id); err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *employeeRepo) List(ctx context.Context) ([]model.Employee, error) {
	employees := []model.Employee{}
	err := r.db.SelectContext(ctx, &employees, `SELECT * FROM employees ORDER BY name ASC`)
	return employees, err
}

type adminRepo struct {
	db DB
}

func (r *adminRepo) Create(ctx context.Context, a *model.Admin) error {
	query := `
	INSERT INTO admins (id, email, full_name, password_hash, created_at)
	VALUES (:id, :email, :full_name, :password_hash, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, a)
	return translate(err)
}

func (r *adminRepo) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	if err := r.db.GetContext(ctx, &a, `SELECT * FROM admins WHERE email = ?`, email); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

type itemRepo struct {
	db DB
}

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	query := `
	INSERT INTO items (id, name, description, serving_day, created_at)
	VALUES (:id, :name, :description, :serving_day, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, item)
	return translate(err)
}

func (r *itemRepo) List(ctx context.Context, servingDay string) ([]model.Item, error) {
	items := []model.Item{}
	if servingDay == "" {
		err := r.db.SelectContext(ctx, &items, `SELECT * FROM items ORDER BY serving_day, name`)
		return items, err
	}
	err := r.db.SelectContext(ctx, &items, `SELECT * FROM items WHERE serving_day = ? ORDER BY name`, servingDay)
	return items, err
}

type telegramChatRepo struct {
	db DB
}

func (r *telegramChatRepo) Create(ctx context.Context, chat *model.TelegramChat) error {
	query := `INSERT INTO telegram_chats (chat_id, created_at) VALUES (:chat_id, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, chat)
	return translate(err)
}

func (r *telegramChatRepo) Exists(ctx context.Context, chatID int64) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM telegram_chats WHERE chat_id = ?`, chatID); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *telegramChatRepo) List(ctx context.Context) ([]model.TelegramChat, error) {
	chats := []model.TelegramChat{}
	err := r.db.SelectContext(ctx, &chats, `SELECT * FROM telegram_chats ORDER BY created_at ASC`)
	return chats, err
}
