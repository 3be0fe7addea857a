package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/helptoken/helptoken/internal/models"
)

const itemColumns = `id, title, description, cost, active, created_at`

func scanItem(row rowScanner) (*models.MarketplaceItem, error) {
	var it models.MarketplaceItem
	if err := row.Scan(&it.ID, &it.Title, &it.Description, &it.Cost, &it.Active, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateItem добавляет товар в каталог.
func (r *queries) CreateItem(ctx context.Context, it *models.MarketplaceItem) (int64, error) {
	const op = "storage.CreateItem"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO marketplace_items (title, description, cost, active, created_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var id int64
	if err := r.q.QueryRowContext(ctx, query, it.Title, it.Description, it.Cost, it.Active, it.CreatedAt).
		Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetItem возвращает товар по ID.
func (r *queries) GetItem(ctx context.Context, id int64) (*models.MarketplaceItem, error) {
	const op = "storage.GetItem"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	it, err := scanItem(r.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM marketplace_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: item %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

// ListItems возвращает товары каталога, дешёвые первыми.
func (r *queries) ListItems(ctx context.Context, activeOnly bool) ([]*models.MarketplaceItem, error) {
	const op = "storage.ListItems"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + itemColumns + ` FROM marketplace_items
			  WHERE ($1::boolean = FALSE OR active = TRUE)
			  ORDER BY cost, id`
	rows, err := r.q.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.MarketplaceItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
