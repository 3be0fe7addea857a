package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/helptoken/helptoken/internal/models"
)

const settlementColumns = `id, session_id, opportunity_id, volunteer_uid, minutes, idempotency_key, status,
	attempts, next_attempt_at, last_error, external_reference, created_at, updated_at, confirmed_at`

func scanSettlement(row rowScanner) (*models.SettlementRecord, error) {
	var (
		rec         models.SettlementRecord
		statusText  string
		confirmedAt sql.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.OpportunityID, &rec.VolunteerUID, &rec.Minutes,
		&rec.IdempotencyKey, &statusText, &rec.Attempts, &rec.NextAttemptAt, &rec.LastError,
		&rec.ExternalReference, &rec.CreatedAt, &rec.UpdatedAt, &confirmedAt); err != nil {
		return nil, err
	}
	rec.Status = models.SettlementStatus(statusText)
	if confirmedAt.Valid {
		rec.ConfirmedAt = &confirmedAt.Time
	}
	return &rec, nil
}

func (r *queries) listSettlements(ctx context.Context, op, query string, args ...any) ([]*models.SettlementRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SettlementRecord
	for rows.Next() {
		rec, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// settlementMissOrConflict различает отсутствующую запись и запись в неподходящем статусе.
func (r *queries) settlementMissOrConflict(ctx context.Context, op string, id int64) error {
	found, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM settlements WHERE id = $1)`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return fmt.Errorf("%s: settlement %d: %w", op, id, models.ErrNotFound)
	}
	return fmt.Errorf("%s: settlement %d: %w", op, id, models.ErrConflict)
}

// CreateSettlement вставляет запись расчёта в статусе pending.
func (r *queries) CreateSettlement(ctx context.Context, rec *models.SettlementRecord) (int64, error) {
	const op = "storage.CreateSettlement"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO settlements (session_id, opportunity_id, volunteer_uid, minutes, idempotency_key,
			      status, attempts, next_attempt_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $8)
			  RETURNING id`
	var id int64
	err := r.q.QueryRowContext(ctx, query, rec.SessionID, rec.OpportunityID, rec.VolunteerUID, rec.Minutes,
		rec.IdempotencyKey, string(models.SettlementPending), rec.NextAttemptAt, rec.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetSettlement возвращает запись расчёта по ID.
func (r *queries) GetSettlement(ctx context.Context, id int64) (*models.SettlementRecord, error) {
	const op = "storage.GetSettlement"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rec, err := scanSettlement(r.q.QueryRowContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: settlement %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// GetSettlementBySession возвращает запись расчёта сессии.
func (r *queries) GetSettlementBySession(ctx context.Context, sessionID int64) (*models.SettlementRecord, error) {
	const op = "storage.GetSettlementBySession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := r.q.QueryRowContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE session_id = $1`, sessionID)
	rec, err := scanSettlement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: settlement for session %d: %w", op, sessionID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// ClaimDueSettlements захватывает до limit просроченных записей в статусе pending.
// Захват сдвигает next_attempt_at на now+lease, поэтому параллельный воркер
// не возьмёт ту же запись, пока аренда не истечёт.
func (r *queries) ClaimDueSettlements(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*models.SettlementRecord, error) {
	const op = "storage.ClaimDueSettlements"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE settlements
			  SET next_attempt_at = $2, updated_at = $1
			  WHERE id IN (
			      SELECT id FROM settlements
			      WHERE status = 'pending' AND next_attempt_at <= $1
			      ORDER BY next_attempt_at, id
			      LIMIT $3
			      FOR UPDATE SKIP LOCKED
			  )
			  RETURNING ` + settlementColumns
	return r.listSettlements(ctx, op, query, now, now.Add(lease), limit)
}

// ClaimSettlement захватывает одну запись, если она ещё pending и срок попытки наступил.
// Второй результат false означает, что запись уже обработана или захвачена другим воркером.
func (r *queries) ClaimSettlement(ctx context.Context, id int64, now time.Time, lease time.Duration) (*models.SettlementRecord, bool, error) {
	const op = "storage.ClaimSettlement"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE settlements
			  SET next_attempt_at = $3, updated_at = $2
			  WHERE id = $1 AND status = 'pending' AND next_attempt_at <= $2
			  RETURNING ` + settlementColumns
	rec, err := scanSettlement(r.q.QueryRowContext(ctx, query, id, now, now.Add(lease)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return rec, true, nil
}

// MarkSettlementConfirmed фиксирует успешную запись во внешнем реестре.
func (r *queries) MarkSettlementConfirmed(ctx context.Context, id int64, reference string, at time.Time) error {
	const op = "storage.MarkSettlementConfirmed"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE settlements
			  SET status = 'confirmed', external_reference = $2, confirmed_at = $3, updated_at = $3,
			      attempts = attempts + 1, last_error = ''
			  WHERE id = $1 AND status = 'pending'`
	res, err := r.q.ExecContext(ctx, query, id, reference, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return r.settlementMissOrConflict(ctx, op, id)
	}
	return nil
}

// RecordSettlementFailure сохраняет результат неудачной попытки.
func (r *queries) RecordSettlementFailure(ctx context.Context, id int64, f models.SettlementFailure) error {
	const op = "storage.RecordSettlementFailure"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE settlements
			  SET attempts = $2, status = $3, next_attempt_at = $4, last_error = $5, updated_at = $6
			  WHERE id = $1 AND status = 'pending'`
	res, err := r.q.ExecContext(ctx, query, id, f.Attempts, string(f.Status), f.NextAttemptAt, f.LastError, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return r.settlementMissOrConflict(ctx, op, id)
	}
	return nil
}

// ResetSettlement возвращает failed-запись в pending с нулевым счётчиком попыток.
func (r *queries) ResetSettlement(ctx context.Context, id int64, now time.Time) (*models.SettlementRecord, error) {
	const op = "storage.ResetSettlement"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE settlements
			  SET status = 'pending', attempts = 0, next_attempt_at = $2, updated_at = $2, last_error = ''
			  WHERE id = $1 AND status = 'failed'
			  RETURNING ` + settlementColumns
	rec, err := scanSettlement(r.q.QueryRowContext(ctx, query, id, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.settlementMissOrConflict(ctx, op, id)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// ListSettlements возвращает записи расчёта; пустой status означает все статусы.
func (r *queries) ListSettlements(ctx context.Context, status models.SettlementStatus, limit, offset int) ([]*models.SettlementRecord, error) {
	const op = "storage.ListSettlements"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + settlementColumns + ` FROM settlements
			  WHERE ($1::text = '' OR status = $1::text)
			  ORDER BY created_at, id
			  LIMIT $2 OFFSET $3`
	return r.listSettlements(ctx, op, query, string(status), limit, offset)
}
