// Package repository реализует хранилище учёта на основе PostgreSQL: пользователей,
// возможности, сессии, журнал транзакций, записи расчёта и товары маркетплейса.
// Все изменения баланса и статусов выполняются условными UPDATE, поэтому
// конкурентные запросы не могут провести одну сессию дважды или увести баланс в минус.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/helptoken/helptoken/internal/storage"
)

// querier — общее подмножество *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries содержит SQL-методы, одинаково работающие вне и внутри транзакции.
type queries struct {
	q querier
}

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
	*queries
}

var _ storage.UnitOfWork = (*Storage)(nil)
var _ storage.Ledger = (*queries)(nil)

// New открывает подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithDB(db), nil
}

// NewWithDB оборачивает уже открытое подключение.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{
		DB:      db,
		queries: &queries{q: db},
	}
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(db *Storage) error {
	var exists bool
	err := db.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'settlements'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check settlements table: %w", err)
	}
	if !exists {
		return fmt.Errorf("required table settlements is missing")
	}
	return nil
}

// WithinTx выполняет fn в транзакции. Любая ошибка fn или паника откатывает её.
func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context, l storage.Ledger) error) (err error) {
	const op = "storage.WithinTx"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("%s: rollback: %w", op, rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// rowScanner — общее подмножество *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// exists выполняет запрос вида SELECT EXISTS(...).
func (r *queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
