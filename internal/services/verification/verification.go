// Package verification реализует конечный автомат проверки волонтёрских сессий:
// pending_verification -> verified | rejected. Оба конечных состояния терминальны.
//
// Одобрение в одной транзакции меняет статус, начисляет токены и создаёт запись на расчёт
// с внешним реестром. Сам расчёт выполняется отдельно и на ответ Decide не влияет.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/lib/sl"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/storage"
)

const maxTextLen = 2000

// Store определяет методы хранилища, нужные сервису проверки.
type Store interface {
	storage.UnitOfWork
	GetSession(ctx context.Context, id int64) (*models.VolunteerSession, error)
	GetSettlementBySession(ctx context.Context, sessionID int64) (*models.SettlementRecord, error)
	ListPendingSessions(ctx context.Context, limit, offset int) ([]*models.VolunteerSession, error)
	ListVolunteerSessions(ctx context.Context, uid string, limit, offset int) ([]*models.VolunteerSession, error)
}

// Earner начисляет токены за проверенную сессию внутри транзакции вызывающего.
type Earner interface {
	ApplyEarn(ctx context.Context, l storage.Ledger, s *models.VolunteerSession) (*models.Transaction, error)
}

// Notifier сообщает обработчику расчётов о новой записи. Вызывается после фиксации транзакции.
type Notifier interface {
	Notify(ctx context.Context, rec *models.SettlementRecord) error
}

// Service реализует операции над сессиями.
type Service struct {
	store    Store
	earner   Earner
	notifier Notifier
	guard    *authz.Guard
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewService создает новый экземпляр Service. notifier может быть nil: тогда записи
// подберёт периодический обход обработчика расчётов.
func NewService(log *slog.Logger, store Store, earner Earner, notifier Notifier, guard *authz.Guard, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		earner:   earner,
		notifier: notifier,
		guard:    guard,
		metrics:  m,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func validateSubmit(req models.SubmitSessionRequest) error {
	if req.OpportunityID <= 0 {
		return fmt.Errorf("opportunity_id must be positive: %w", models.ErrValidation)
	}
	if err := models.ValidateHours(req.Hours); err != nil {
		return err
	}
	if utf8.RuneCountInString(req.Description) > maxTextLen {
		return fmt.Errorf("description is longer than %d characters: %w", maxTextLen, models.ErrValidation)
	}
	if req.PhotoURL != "" {
		u, err := url.ParseRequestURI(req.PhotoURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("photo_url is not a valid URL: %w", models.ErrValidation)
		}
	}
	if loc := req.Location; loc != nil {
		if loc.Latitude != nil && (*loc.Latitude < -90 || *loc.Latitude > 90) {
			return fmt.Errorf("latitude out of range: %w", models.ErrValidation)
		}
		if loc.Longitude != nil && (*loc.Longitude < -180 || *loc.Longitude > 180) {
			return fmt.Errorf("longitude out of range: %w", models.ErrValidation)
		}
	}
	return nil
}

// Submit создаёт сессию в состоянии pending_verification. Ставка возможности
// фиксируется в сессии, tokens_earned = hours × rate считается здесь и больше не меняется.
func (s *Service) Submit(ctx context.Context, id authz.Identity, req models.SubmitSessionRequest) (*models.VolunteerSession, error) {
	const op = "verification.Submit"
	if err := s.guard.Require(id, authz.SubmitSession); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateSubmit(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var session *models.VolunteerSession
	err := s.store.WithinTx(ctx, func(ctx context.Context, l storage.Ledger) error {
		opp, err := l.GetOpportunity(ctx, req.OpportunityID)
		if err != nil {
			return err
		}
		if !opp.Active {
			return fmt.Errorf("opportunity %d is inactive: %w", opp.ID, models.ErrNotFound)
		}
		if err := l.EnsureUser(ctx, id.UserUID, string(id.Role)); err != nil {
			return err
		}

		session = &models.VolunteerSession{
			OpportunityID:    opp.ID,
			VolunteerUID:     id.UserUID,
			Hours:            req.Hours,
			FrozenRewardRate: opp.RewardRate,
			TokensEarned:     models.ComputeTokens(req.Hours, opp.RewardRate),
			Description:      req.Description,
			PhotoURL:         req.PhotoURL,
			Status:           models.SessionPending,
			SubmittedAt:      s.now(),
		}
		if req.Location != nil {
			session.Latitude = req.Location.Latitude
			session.Longitude = req.Location.Longitude
		}
		sessionID, err := l.CreateSession(ctx, session)
		if err != nil {
			return err
		}
		session.ID = sessionID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.SessionsSubmitted.Inc()
	s.log.Info("session submitted",
		slog.Int64("session_id", session.ID),
		slog.String("volunteer_uid", session.VolunteerUID),
		slog.String("tokens_earned", session.TokensEarned.String()),
	)
	return session, nil
}

// Decide переводит сессию в verified или rejected. Повторное решение даёт models.ErrConflict,
// решение по собственной сессии даёт models.ErrForbidden.
func (s *Service) Decide(ctx context.Context, id authz.Identity, sessionID int64, approved bool, notes string) (*models.VolunteerSession, error) {
	const op = "verification.Decide"
	if err := s.guard.Require(id, authz.DecideSession); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if utf8.RuneCountInString(notes) > maxTextLen {
		return nil, fmt.Errorf("%s: notes are longer than %d characters: %w", op, maxTextLen, models.ErrValidation)
	}

	status := models.SessionRejected
	if approved {
		status = models.SessionVerified
	}
	decidedAt := s.now()

	var (
		decided *models.VolunteerSession
		rec     *models.SettlementRecord
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, l storage.Ledger) error {
		current, err := l.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if current.VolunteerUID == id.UserUID {
			return fmt.Errorf("own session %d: %w", sessionID, models.ErrForbidden)
		}

		decided, err = l.DecideSession(ctx, sessionID, models.Decision{
			Status:      status,
			VerifierUID: id.UserUID,
			Notes:       notes,
			DecidedAt:   decidedAt,
		})
		if err != nil {
			return err
		}
		if !approved {
			return nil
		}

		if _, err := s.earner.ApplyEarn(ctx, l, decided); err != nil {
			return err
		}
		rec = &models.SettlementRecord{
			SessionID:      decided.ID,
			OpportunityID:  decided.OpportunityID,
			VolunteerUID:   decided.VolunteerUID,
			Minutes:        models.SessionMinutes(decided.Hours),
			IdempotencyKey: uuid.NewString(),
			Status:         models.SettlementPending,
			NextAttemptAt:  decidedAt,
			CreatedAt:      decidedAt,
			UpdatedAt:      decidedAt,
		}
		recID, err := l.CreateSettlement(ctx, rec)
		if err != nil {
			return err
		}
		rec.ID = recID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.SessionsDecided.WithLabelValues(string(status)).Inc()
	log := s.log.With(
		slog.Int64("session_id", decided.ID),
		slog.String("verifier_uid", id.UserUID),
		slog.String("status", string(status)),
	)
	log.Info("session decided")

	if rec != nil && s.notifier != nil {
		if err := s.notifier.Notify(ctx, rec); err != nil {
			log.Warn("failed to notify settlement worker, sweep will pick it up",
				slog.Int64("settlement_id", rec.ID), sl.Err(err))
		}
	}
	return decided, nil
}

// ListPending возвращает ожидающие проверки сессии, старые первыми.
func (s *Service) ListPending(ctx context.Context, id authz.Identity, limit, offset int) ([]*models.VolunteerSession, error) {
	const op = "verification.ListPending"
	if err := s.guard.Require(id, authz.ListPending); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	limit, offset = storage.NormalizePage(limit, offset)
	sessions, err := s.store.ListPendingSessions(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sessions, nil
}

// ListMine возвращает сессии вызывающего, новые первыми.
func (s *Service) ListMine(ctx context.Context, id authz.Identity, limit, offset int) ([]*models.VolunteerSession, error) {
	const op = "verification.ListMine"
	if err := s.guard.Require(id, authz.ViewOwnLedger); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	limit, offset = storage.NormalizePage(limit, offset)
	sessions, err := s.store.ListVolunteerSessions(ctx, id.UserUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sessions, nil
}

// Get возвращает сессию вместе с записью о расчёте. Волонтёру чужая сессия
// не видна: для него она не существует.
func (s *Service) Get(ctx context.Context, id authz.Identity, sessionID int64) (*models.SessionDetails, error) {
	const op = "verification.Get"
	if err := s.guard.Require(id, authz.ViewOwnLedger); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session.VolunteerUID != id.UserUID && !id.Role.Can(authz.ListPending) {
		return nil, fmt.Errorf("%s: session %d: %w", op, sessionID, models.ErrNotFound)
	}

	details := &models.SessionDetails{Session: session}
	rec, err := s.store.GetSettlementBySession(ctx, sessionID)
	switch {
	case err == nil:
		details.Settlement = rec
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return details, nil
}
