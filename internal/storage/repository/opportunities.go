package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/helptoken/helptoken/internal/models"
)

const opportunityColumns = `id, title, description, category, municipality, reward_rate, active, created_at, updated_at`

func scanOpportunity(row rowScanner) (*models.Opportunity, error) {
	var o models.Opportunity
	if err := row.Scan(&o.ID, &o.Title, &o.Description, &o.Category, &o.Municipality,
		&o.RewardRate, &o.Active, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOpportunity вставляет возможность и возвращает её ID.
func (r *queries) CreateOpportunity(ctx context.Context, o *models.Opportunity) (int64, error) {
	const op = "storage.CreateOpportunity"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO opportunities (title, description, category, municipality, reward_rate, active,
			      created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			  RETURNING id`
	var id int64
	err := r.q.QueryRowContext(ctx, query, o.Title, o.Description, o.Category, o.Municipality,
		o.RewardRate, o.Active, o.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateOpportunity перезаписывает изменяемые поля. Уже поданные сессии
// сохраняют ставку, действовавшую на момент подачи.
func (r *queries) UpdateOpportunity(ctx context.Context, o *models.Opportunity) error {
	const op = "storage.UpdateOpportunity"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE opportunities
			  SET title = $2, description = $3, category = $4, municipality = $5,
			      reward_rate = $6, active = $7, updated_at = $8
			  WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, o.ID, o.Title, o.Description, o.Category, o.Municipality,
		o.RewardRate, o.Active, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: opportunity %d: %w", op, o.ID, models.ErrNotFound)
	}
	return nil
}

// GetOpportunity возвращает возможность по ID, в том числе неактивную.
func (r *queries) GetOpportunity(ctx context.Context, id int64) (*models.Opportunity, error) {
	const op = "storage.GetOpportunity"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := r.q.QueryRowContext(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id)
	o, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: opportunity %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// ListOpportunities возвращает возможности, новые первыми.
func (r *queries) ListOpportunities(ctx context.Context, activeOnly bool) ([]*models.Opportunity, error) {
	const op = "storage.ListOpportunities"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + opportunityColumns + ` FROM opportunities
			  WHERE ($1::boolean = FALSE OR active = TRUE)
			  ORDER BY created_at DESC, id DESC`
	rows, err := r.q.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
