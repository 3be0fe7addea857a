// Package accounting — движок учёта: начисления за проверенные сессии, списания за товары
// маркетплейса и сверка баланса с журналом транзакций.
//
// Баланс пользователя меняется только здесь и только вместе с записью в журнал, поэтому
// для любого пользователя в любой момент balance == сумма earn минус сумма spend.
package accounting

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/lib/sl"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/storage"
)

// Store определяет методы хранилища, нужные движку учёта.
type Store interface {
	storage.UnitOfWork
	// GetUser возвращает пользователя по uid.
	GetUser(ctx context.Context, uid string) (*models.User, error)
	// SetWallet привязывает адрес кошелька.
	SetWallet(ctx context.Context, uid, address string) error
	// ListTransactions возвращает журнал пользователя, новые записи первыми.
	ListTransactions(ctx context.Context, uid string, limit, offset int) ([]*models.Transaction, error)
	// SumTransactions считает суммы earn и spend пользователя.
	SumTransactions(ctx context.Context, uid string) (models.LedgerTotals, error)
	// ListUserUIDs возвращает всех пользователей для сверки.
	ListUserUIDs(ctx context.Context) ([]string, error)
}

// Engine реализует операции учёта.
type Engine struct {
	store   Store
	guard   *authz.Guard
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// NewEngine создает новый экземпляр Engine.
func NewEngine(log *slog.Logger, store Store, guard *authz.Guard, m *metrics.Metrics) *Engine {
	return &Engine{
		store:   store,
		guard:   guard,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ApplyEarn начисляет токены за проверенную сессию внутри единицы работы вызывающего:
// увеличивает баланс, часы и число проектов и добавляет earn-транзакцию, связанную с сессией.
func (e *Engine) ApplyEarn(ctx context.Context, l storage.Ledger, s *models.VolunteerSession) (*models.Transaction, error) {
	const op = "accounting.ApplyEarn"
	if s.Status != models.SessionVerified {
		return nil, fmt.Errorf("%s: session %d is %s: %w", op, s.ID, s.Status, models.ErrConflict)
	}
	if !s.TokensEarned.IsPositive() {
		return nil, fmt.Errorf("%s: session %d earns nothing: %w", op, s.ID, models.ErrValidation)
	}

	if err := l.CreditEarnings(ctx, s.VolunteerUID, s.TokensEarned, s.Hours); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sessionID := s.ID
	tx := &models.Transaction{
		Type:        models.TxEarn,
		Amount:      s.TokensEarned,
		UserUID:     s.VolunteerUID,
		SessionID:   &sessionID,
		Description: fmt.Sprintf("verified volunteer session %d", s.ID),
		CreatedAt:   e.now(),
	}
	id, err := l.AppendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tx.ID = id
	return tx, nil
}

// Redeem списывает стоимость товара и добавляет spend-транзакцию.
// Cost в запросе необязателен; если передан, он должен совпасть с текущей ценой товара.
func (e *Engine) Redeem(ctx context.Context, id authz.Identity, req models.RedeemRequest) (*models.Transaction, error) {
	const op = "accounting.Redeem"
	if err := e.guard.Require(id, authz.Redeem); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.ItemID <= 0 {
		return nil, fmt.Errorf("%s: item_id must be positive: %w", op, models.ErrValidation)
	}
	if req.Cost.IsNegative() {
		return nil, fmt.Errorf("%s: cost must be positive: %w", op, models.ErrValidation)
	}

	var tx *models.Transaction
	err := e.store.WithinTx(ctx, func(ctx context.Context, l storage.Ledger) error {
		item, err := l.GetItem(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if !item.Active {
			return fmt.Errorf("item %d is inactive: %w", item.ID, models.ErrNotFound)
		}
		if !item.Cost.IsPositive() {
			return fmt.Errorf("item %d has no price: %w", item.ID, models.ErrValidation)
		}
		if !req.Cost.IsZero() && !req.Cost.Equal(item.Cost) {
			return fmt.Errorf("cost %s does not match item price %s: %w", req.Cost, item.Cost, models.ErrValidation)
		}

		if err := l.EnsureUser(ctx, id.UserUID, string(id.Role)); err != nil {
			return err
		}
		if err := l.DebitBalance(ctx, id.UserUID, item.Cost); err != nil {
			return err
		}
		itemID := item.ID
		tx = &models.Transaction{
			Type:        models.TxSpend,
			Amount:      item.Cost,
			UserUID:     id.UserUID,
			ItemID:      &itemID,
			Description: "redeemed " + item.Title,
			CreatedAt:   e.now(),
		}
		txID, err := l.AppendTransaction(ctx, tx)
		if err != nil {
			return err
		}
		tx.ID = txID
		return nil
	})
	e.metrics.Redemptions.WithLabelValues(redeemResult(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info("item redeemed",
		slog.String("user_uid", id.UserUID),
		slog.Int64("item_id", req.ItemID),
		slog.String("amount", tx.Amount.String()),
	)
	return tx, nil
}

func redeemResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// resolveSubject возвращает uid, чей учёт читает id. Пустой uid означает "свой".
// Чужой учёт доступен только администратору.
func (e *Engine) resolveSubject(id authz.Identity, uid string) (string, error) {
	if err := e.guard.Require(id, authz.ViewOwnLedger); err != nil {
		return "", err
	}
	if uid == "" || uid == id.UserUID {
		return id.UserUID, nil
	}
	if !id.IsAdmin() {
		return "", fmt.Errorf("ledger of %s: %w", uid, models.ErrForbidden)
	}
	return uid, nil
}

// Balance возвращает баланс и статистику пользователя. У пользователя без записей баланс нулевой.
func (e *Engine) Balance(ctx context.Context, id authz.Identity, uid string) (*models.User, error) {
	const op = "accounting.Balance"
	subject, err := e.resolveSubject(id, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u, err := e.store.GetUser(ctx, subject)
	if errors.Is(err, models.ErrNotFound) {
		return &models.User{UID: subject, Balance: decimal.Zero, TotalHours: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// History возвращает журнал транзакций пользователя.
func (e *Engine) History(ctx context.Context, id authz.Identity, uid string, limit, offset int) ([]*models.Transaction, error) {
	const op = "accounting.History"
	subject, err := e.resolveSubject(id, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	limit, offset = storage.NormalizePage(limit, offset)
	txs, err := e.store.ListTransactions(ctx, subject, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return txs, nil
}

// SetWallet привязывает адрес кошелька вызывающего. Адрес используется как получатель
// при следующей попытке расчёта с внешним реестром.
func (e *Engine) SetWallet(ctx context.Context, id authz.Identity, address string) error {
	const op = "accounting.SetWallet"
	if err := e.guard.Require(id, authz.ViewOwnLedger); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := ValidateWalletAddress(address); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err := e.store.WithinTx(ctx, func(ctx context.Context, l storage.Ledger) error {
		return l.EnsureUser(ctx, id.UserUID, string(id.Role))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := e.store.SetWallet(ctx, id.UserUID, strings.ToLower(address)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidateWalletAddress проверяет формат 0x + 40 шестнадцатеричных символов.
func ValidateWalletAddress(address string) error {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return fmt.Errorf("wallet address must be 0x followed by 40 hex characters: %w", models.ErrValidation)
	}
	if _, err := hex.DecodeString(address[2:]); err != nil {
		return fmt.Errorf("wallet address is not hex: %w", models.ErrValidation)
	}
	return nil
}

// Audit сверяет хранимый баланс пользователя с журналом.
func (e *Engine) Audit(ctx context.Context, uid string) (*models.AuditResult, error) {
	const op = "accounting.Audit"
	balance := decimal.Zero
	u, err := e.store.GetUser(ctx, uid)
	switch {
	case err == nil:
		balance = u.Balance
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totals, err := e.store.SumTransactions(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res := &models.AuditResult{
		UserUID:  uid,
		Balance:  balance,
		Journal:  totals.Net(),
		Mismatch: !balance.Equal(totals.Net()),
	}
	if res.Mismatch {
		e.metrics.AuditMismatches.Inc()
		e.log.Error("balance does not match transaction journal",
			slog.String("user_uid", uid),
			slog.String("balance", res.Balance.String()),
			slog.String("journal", res.Journal.String()),
		)
	}
	return res, nil
}

// AuditAll сверяет всех пользователей и возвращает только расхождения.
// Ошибка по одному пользователю логируется и не прерывает сверку остальных.
func (e *Engine) AuditAll(ctx context.Context) ([]models.AuditResult, error) {
	const op = "accounting.AuditAll"
	uids, err := e.store.ListUserUIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var mismatches []models.AuditResult
	for _, uid := range uids {
		if ctx.Err() != nil {
			return mismatches, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		res, err := e.Audit(ctx, uid)
		if err != nil {
			e.log.Error("audit failed", slog.String("user_uid", uid), sl.Err(err))
			continue
		}
		if res.Mismatch {
			mismatches = append(mismatches, *res)
		}
	}
	e.log.Info("balance audit finished",
		slog.Int("users", len(uids)),
		slog.Int("mismatches", len(mismatches)),
	)
	return mismatches, nil
}
