package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/helptoken/helptoken/internal/models"
)

// AppendTransaction добавляет запись в журнал. Записи никогда не изменяются.
func (r *queries) AppendTransaction(ctx context.Context, tx *models.Transaction) (int64, error) {
	const op = "storage.AppendTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	// Пустое время заменяется на NOW() базы.
	var createdAt *time.Time
	if !tx.CreatedAt.IsZero() {
		createdAt = &tx.CreatedAt
	}
	query := `INSERT INTO transactions (type, amount, user_uid, session_id, item_id, description, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
			  RETURNING id`
	var id int64
	if err := r.q.QueryRowContext(ctx, query, string(tx.Type), tx.Amount, tx.UserUID, tx.SessionID, tx.ItemID,
		tx.Description, createdAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListTransactions возвращает журнал пользователя, новые записи первыми.
func (r *queries) ListTransactions(ctx context.Context, uid string, limit, offset int) ([]*models.Transaction, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, type, amount, user_uid, session_id, item_id, description, created_at
			  FROM transactions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, uid, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Transaction
	for rows.Next() {
		var (
			t         models.Transaction
			txType    string
			sessionID sql.NullInt64
			itemID    sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &txType, &t.Amount, &t.UserUID, &sessionID, &itemID,
			&t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.Type = models.TransactionType(txType)
		if sessionID.Valid {
			t.SessionID = &sessionID.Int64
		}
		if itemID.Valid {
			t.ItemID = &itemID.Int64
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumTransactions считает суммы earn и spend по журналу пользователя.
func (r *queries) SumTransactions(ctx context.Context, uid string) (models.LedgerTotals, error) {
	const op = "storage.SumTransactions"
	select {
	case <-ctx.Done():
		return models.LedgerTotals{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      COALESCE(SUM(amount) FILTER (WHERE type = 'earn'), 0),
			      COALESCE(SUM(amount) FILTER (WHERE type = 'spend'), 0)
			  FROM transactions
			  WHERE user_uid = $1`
	var totals models.LedgerTotals
	if err := r.q.QueryRowContext(ctx, query, uid).Scan(&totals.Earned, &totals.Spent); err != nil {
		return models.LedgerTotals{}, fmt.Errorf("%s: %w", op, err)
	}
	return totals, nil
}
