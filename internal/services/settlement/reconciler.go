// Package settlement зеркалирует проверенные сессии во внешний реестр.
//
// Запись на расчёт создаётся в транзакции одобрения сессии. Reconciler забирает
// записи со статусом pending, вызывает реестр с ограничением по времени и переводит
// запись в confirmed либо планирует повтор с экспоненциальной задержкой. После
// max_attempts неудач запись становится failed и ждёт оператора. Ни сессия,
// ни транзакции здесь не меняются.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/lib/sl"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/storage"
)

// Store определяет методы хранилища, нужные сверщику.
type Store interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetSettlement(ctx context.Context, id int64) (*models.SettlementRecord, error)
	// ClaimDueSettlements забирает до limit записей pending со сроком не позже at
	// и сдвигает их срок на lease, чтобы другой обработчик их не взял.
	ClaimDueSettlements(ctx context.Context, at time.Time, lease time.Duration, limit int) ([]*models.SettlementRecord, error)
	// ClaimSettlement забирает одну запись, если она pending и её срок наступил.
	ClaimSettlement(ctx context.Context, id int64, at time.Time, lease time.Duration) (*models.SettlementRecord, bool, error)
	MarkSettlementConfirmed(ctx context.Context, id int64, reference string, at time.Time) error
	RecordSettlementFailure(ctx context.Context, id int64, f models.SettlementFailure) error
	ResetSettlement(ctx context.Context, id int64, at time.Time) (*models.SettlementRecord, error)
	ListSettlements(ctx context.Context, status models.SettlementStatus, limit, offset int) ([]*models.SettlementRecord, error)
}

// Client записывает сессию во внешний реестр и возвращает ссылку на запись (хеш транзакции).
type Client interface {
	RecordSession(ctx context.Context, req models.SettlementRequest) (string, error)
}

type Config struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	Lease          time.Duration
	BatchSize      int
	PollInterval   time.Duration
	Backoff        Backoff
}

// Reconciler выполняет попытки расчёта.
type Reconciler struct {
	store   Store
	client  Client
	guard   *authz.Guard
	metrics *metrics.Metrics
	log     *slog.Logger
	cfg     Config
	now     func() time.Time
	kick    chan struct{}

	retryNotifier Notifier
}

// NewReconciler создает новый экземпляр Reconciler.
func NewReconciler(log *slog.Logger, store Store, client Client, guard *authz.Guard, m *metrics.Metrics, cfg Config) *Reconciler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.Lease <= 0 {
		cfg.Lease = time.Minute
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 15 * time.Second
	}
	if cfg.Lease < cfg.AttemptTimeout {
		cfg.Lease = 2 * cfg.AttemptTimeout
	}
	return &Reconciler{
		store:   store,
		client:  client,
		guard:   guard,
		metrics: m,
		log:     log.With(slog.String("component", "settlement")),
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		kick:    make(chan struct{}, 1),
	}
}

// NotifyRetriesVia направляет уведомления о сброшенных записях во внешний обработчик,
// например в очередь, когда Run работает в другом процессе.
func (r *Reconciler) NotifyRetriesVia(n Notifier) {
	r.retryNotifier = n
}

// Notify будит встроенный цикл Run. Никогда не блокирует.
func (r *Reconciler) Notify(_ context.Context, _ *models.SettlementRecord) error {
	select {
	case r.kick <- struct{}{}:
	default:
	}
	return nil
}

// HandleMessage обрабатывает уведомление из очереди. Нераспознанное сообщение
// подтверждается и отбрасывается; ошибка возвращается только при сбое хранилища,
// чтобы сообщение вернулось в очередь.
func (r *Reconciler) HandleMessage(ctx context.Context, body []byte) error {
	const op = "settlement.HandleMessage"
	var msg models.SettlementMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.SettlementID <= 0 {
		r.log.Error("dropping malformed settlement message", slog.String("body", string(body)), sl.Err(err))
		return nil
	}

	rec, claimed, err := r.store.ClaimSettlement(ctx, msg.SettlementID, r.now(), r.cfg.Lease)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !claimed {
		r.log.Debug("settlement not due or already taken", slog.Int64("settlement_id", msg.SettlementID))
		return nil
	}
	if err := r.attempt(ctx, rec); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Sweep забирает одну пачку просроченных записей и пытается их провести.
// Возвращает число обработанных записей.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	const op = "settlement.Sweep"
	due, err := r.store.ClaimDueSettlements(ctx, r.now(), r.cfg.Lease, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	processed := 0
	for _, rec := range due {
		if err := r.attempt(ctx, rec); err != nil {
			return processed, fmt.Errorf("%s: %w", op, err)
		}
		processed++
	}
	if processed > 0 {
		r.log.Info("settlement sweep finished", slog.Int("processed", processed))
	}
	return processed, nil
}

// Run обходит записи по таймеру и по Notify, пока не отменён ctx.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.log.Info("settlement reconciler started", slog.Duration("poll_interval", r.cfg.PollInterval))
	for {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("settlement sweep failed", sl.Err(err))
		}
		select {
		case <-ctx.Done():
			r.log.Info("settlement reconciler stopped")
			return nil
		case <-ticker.C:
		case <-r.kick:
		}
	}
}

// attempt выполняет одну попытку. Ошибка внешнего реестра записывается в запись
// и наружу не возвращается; наружу уходят только сбои хранилища и отмена ctx.
func (r *Reconciler) attempt(ctx context.Context, rec *models.SettlementRecord) error {
	log := r.log.With(
		slog.Int64("settlement_id", rec.ID),
		slog.Int64("session_id", rec.SessionID),
		slog.Int("attempt", rec.Attempts+1),
	)

	ref, callErr := r.call(ctx, rec)
	if callErr != nil && ctx.Err() != nil {
		// Остановка процесса: попытка не засчитывается, запись вернётся по истечении lease.
		return ctx.Err()
	}

	at := r.now()
	if callErr == nil {
		if err := r.store.MarkSettlementConfirmed(ctx, rec.ID, ref, at); err != nil {
			return err
		}
		r.metrics.SettlementAttempts.WithLabelValues("confirmed").Inc()
		log.Info("settlement confirmed", slog.String("external_reference", ref))
		return nil
	}

	attempts := rec.Attempts + 1
	failure := models.SettlementFailure{
		Attempts:      attempts,
		Status:        models.SettlementPending,
		NextAttemptAt: at.Add(r.cfg.Backoff.Delay(attempts)),
		LastError:     callErr.Error(),
		UpdatedAt:     at,
	}
	result := "retry"
	if attempts >= r.cfg.MaxAttempts {
		failure.Status = models.SettlementFailed
		result = "failed"
	}
	if err := r.store.RecordSettlementFailure(ctx, rec.ID, failure); err != nil {
		return err
	}
	r.metrics.SettlementAttempts.WithLabelValues(result).Inc()

	if failure.Status == models.SettlementFailed {
		log.Error("settlement failed permanently, operator action required", sl.Err(callErr))
	} else {
		log.Warn("settlement attempt failed",
			slog.Time("next_attempt_at", failure.NextAttemptAt), sl.Err(callErr))
	}
	return nil
}

// call читает адрес кошелька на момент попытки и вызывает реестр. Вызов, не уложившийся
// в AttemptTimeout, считается неудачным, даже если клиент не уважает ctx.
func (r *Reconciler) call(ctx context.Context, rec *models.SettlementRecord) (string, error) {
	u, err := r.store.GetUser(ctx, rec.VolunteerUID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return "", err
	}
	if u == nil || u.WalletAddress == "" {
		return "", fmt.Errorf("volunteer %s has no wallet address: %w", rec.VolunteerUID, models.ErrSettlementFailure)
	}

	req := models.SettlementRequest{
		OpportunityID:  rec.OpportunityID,
		Beneficiary:    u.WalletAddress,
		Minutes:        rec.Minutes,
		IdempotencyKey: rec.IdempotencyKey,
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
	defer cancel()

	type result struct {
		ref string
		err error
	}
	done := make(chan result, 1)
	go func() {
		ref, err := r.client.RecordSession(attemptCtx, req)
		done <- result{ref: ref, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		if res.ref == "" {
			return "", fmt.Errorf("ledger returned empty reference: %w", models.ErrSettlementFailure)
		}
		return res.ref, nil
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ledger call exceeded %s: %w", r.cfg.AttemptTimeout, models.ErrSettlementFailure)
	}
}

// Retry возвращает запись failed в pending с нулевым счётчиком попыток.
// Для записи в любом другом состоянии возвращает models.ErrConflict.
func (r *Reconciler) Retry(ctx context.Context, id authz.Identity, settlementID int64) (*models.SettlementRecord, error) {
	const op = "settlement.Retry"
	if err := r.guard.Require(id, authz.ManageSettlements); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec, err := r.store.ResetSettlement(ctx, settlementID, r.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r.log.Info("settlement reset for retry",
		slog.Int64("settlement_id", rec.ID),
		slog.String("operator_uid", id.UserUID),
	)
	if r.retryNotifier != nil {
		if err := r.retryNotifier.Notify(ctx, rec); err != nil {
			r.log.Warn("failed to notify about retried settlement", slog.Int64("settlement_id", rec.ID), sl.Err(err))
		}
	} else {
		_ = r.Notify(ctx, rec)
	}
	return rec, nil
}

// Get возвращает запись расчёта по id.
func (r *Reconciler) Get(ctx context.Context, id authz.Identity, settlementID int64) (*models.SettlementRecord, error) {
	const op = "settlement.Get"
	if err := r.guard.Require(id, authz.ManageSettlements); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec, err := r.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// List возвращает записи расчёта с указанным статусом; пустой статус означает все.
func (r *Reconciler) List(ctx context.Context, id authz.Identity, status models.SettlementStatus, limit, offset int) ([]*models.SettlementRecord, error) {
	const op = "settlement.List"
	if err := r.guard.Require(id, authz.ManageSettlements); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status != "" {
		if _, ok := models.ParseSettlementStatus(string(status)); !ok {
			return nil, fmt.Errorf("%s: unknown status %q: %w", op, status, models.ErrValidation)
		}
	}
	limit, offset = storage.NormalizePage(limit, offset)
	records, err := r.store.ListSettlements(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}
