// Package storage описывает контракт хранилища учёта: операции, которые должны
// выполняться внутри одной транзакции, и единицу работы, которая их объединяет.
//
// Реализации: repository (PostgreSQL) и memory (тесты и локальный запуск).
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/helptoken/helptoken/internal/models"
)

// Ledger — операции, доступные внутри единицы работы. Все изменения, сделанные через
// один Ledger, фиксируются или откатываются вместе.
type Ledger interface {
	EnsureUser(ctx context.Context, uid, role string) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetOpportunity(ctx context.Context, id int64) (*models.Opportunity, error)
	GetItem(ctx context.Context, id int64) (*models.MarketplaceItem, error)

	CreateSession(ctx context.Context, s *models.VolunteerSession) (int64, error)
	GetSession(ctx context.Context, id int64) (*models.VolunteerSession, error)
	// DecideSession атомарно переводит сессию из pending_verification в d.Status.
	// Возвращает models.ErrNotFound для отсутствующей сессии и models.ErrConflict,
	// если сессия уже не в ожидании.
	DecideSession(ctx context.Context, id int64, d models.Decision) (*models.VolunteerSession, error)

	// CreditEarnings увеличивает баланс на amount, total_hours на hours и total_projects на единицу.
	CreditEarnings(ctx context.Context, uid string, amount, hours decimal.Decimal) error
	// DebitBalance уменьшает баланс только если его хватает, иначе models.ErrInsufficientBalance.
	DebitBalance(ctx context.Context, uid string, amount decimal.Decimal) error
	AppendTransaction(ctx context.Context, tx *models.Transaction) (int64, error)

	CreateSettlement(ctx context.Context, rec *models.SettlementRecord) (int64, error)
}

// UnitOfWork выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, l Ledger) error) error
}

// Pagination по умолчанию для списков.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// NormalizePage приводит limit/offset к допустимым значениям.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
