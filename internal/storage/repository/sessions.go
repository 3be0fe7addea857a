package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/helptoken/helptoken/internal/models"
)

const sessionColumns = `id, opportunity_id, volunteer_uid, hours, frozen_reward_rate, tokens_earned,
	description, photo_url, latitude, longitude, status, verifier_uid, verifier_notes,
	submitted_at, decided_at`

func scanSession(row rowScanner) (*models.VolunteerSession, error) {
	var (
		s          models.VolunteerSession
		lat, lon   sql.NullFloat64
		verifier   sql.NullString
		decidedAt  sql.NullTime
		statusText string
	)
	if err := row.Scan(&s.ID, &s.OpportunityID, &s.VolunteerUID, &s.Hours, &s.FrozenRewardRate,
		&s.TokensEarned, &s.Description, &s.PhotoURL, &lat, &lon, &statusText, &verifier,
		&s.VerifierNotes, &s.SubmittedAt, &decidedAt); err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(statusText)
	if lat.Valid {
		s.Latitude = &lat.Float64
	}
	if lon.Valid {
		s.Longitude = &lon.Float64
	}
	s.VerifierUID = verifier.String
	if decidedAt.Valid {
		s.DecidedAt = &decidedAt.Time
	}
	return &s, nil
}

// CreateSession сохраняет новую сессию в статусе pending_verification.
func (r *queries) CreateSession(ctx context.Context, s *models.VolunteerSession) (int64, error) {
	const op = "storage.CreateSession"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO volunteer_sessions (opportunity_id, volunteer_uid, hours, frozen_reward_rate,
			      tokens_earned, description, photo_url, latitude, longitude, status, submitted_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING id`
	var id int64
	err := r.q.QueryRowContext(ctx, query, s.OpportunityID, s.VolunteerUID, s.Hours, s.FrozenRewardRate,
		s.TokensEarned, s.Description, s.PhotoURL, s.Latitude, s.Longitude, string(models.SessionPending),
		s.SubmittedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetSession возвращает сессию по ID.
func (r *queries) GetSession(ctx context.Context, id int64) (*models.VolunteerSession, error) {
	const op = "storage.GetSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	s, err := scanSession(r.q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM volunteer_sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: session %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// DecideSession выполняет compare-and-set статуса. Если ни одна строка не обновлена,
// отдельная проверка существования отличает отсутствующую сессию от уже решённой.
func (r *queries) DecideSession(ctx context.Context, id int64, d models.Decision) (*models.VolunteerSession, error) {
	const op = "storage.DecideSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE volunteer_sessions
			  SET status = $2, verifier_uid = $3, verifier_notes = $4, decided_at = $5
			  WHERE id = $1 AND status = 'pending_verification'
			  RETURNING ` + sessionColumns
	s, err := scanSession(r.q.QueryRowContext(ctx, query, id, string(d.Status), d.VerifierUID, d.Notes, d.DecidedAt))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	found, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM volunteer_sessions WHERE id = $1)`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: session %d: %w", op, id, models.ErrNotFound)
	}
	return nil, fmt.Errorf("%s: session %d already processed: %w", op, id, models.ErrConflict)
}

// ListPendingSessions возвращает ожидающие проверки сессии, старые первыми.
func (r *queries) ListPendingSessions(ctx context.Context, limit, offset int) ([]*models.VolunteerSession, error) {
	const op = "storage.ListPendingSessions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + sessionColumns + ` FROM volunteer_sessions
			  WHERE status = 'pending_verification'
			  ORDER BY submitted_at ASC, id ASC
			  LIMIT $1 OFFSET $2`
	return r.listSessions(ctx, op, query, limit, offset)
}

// ListVolunteerSessions возвращает сессии волонтёра, новые первыми.
func (r *queries) ListVolunteerSessions(ctx context.Context, uid string, limit, offset int) ([]*models.VolunteerSession, error) {
	const op = "storage.ListVolunteerSessions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + sessionColumns + ` FROM volunteer_sessions
			  WHERE volunteer_uid = $1
			  ORDER BY submitted_at DESC, id DESC
			  LIMIT $2 OFFSET $3`
	return r.listSessions(ctx, op, query, uid, limit, offset)
}

func (r *queries) listSessions(ctx context.Context, op, query string, args ...any) ([]*models.VolunteerSession, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.VolunteerSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
