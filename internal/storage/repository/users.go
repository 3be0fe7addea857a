package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/helptoken/helptoken/internal/models"
)

// EnsureUser создаёт строку пользователя при первом обращении и обновляет роль из токена.
func (r *queries) EnsureUser(ctx context.Context, uid, role string) error {
	const op = "storage.EnsureUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, role) VALUES ($1, $2)
			  ON CONFLICT (uid) DO UPDATE SET role = EXCLUDED.role
			  WHERE users.role <> EXCLUDED.role`
	if _, err := r.q.ExecContext(ctx, query, uid, role); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по uid.
func (r *queries) GetUser(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, role, wallet_address, balance, total_hours, total_projects, created_at
			  FROM users WHERE uid = $1`
	var u models.User
	var wallet sql.NullString
	err := r.q.QueryRowContext(ctx, query, uid).Scan(&u.UID, &u.Role, &wallet, &u.Balance,
		&u.TotalHours, &u.TotalProjects, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: user %s: %w", op, uid, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.WalletAddress = wallet.String
	return &u, nil
}

// SetWallet привязывает адрес кошелька к пользователю.
func (r *queries) SetWallet(ctx context.Context, uid, address string) error {
	const op = "storage.SetWallet"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := r.q.ExecContext(ctx, `UPDATE users SET wallet_address = $2 WHERE uid = $1`, uid, address)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: user %s: %w", op, uid, models.ErrNotFound)
	}
	return nil
}

// CreditEarnings зачисляет токены и обновляет статистику пользователя.
func (r *queries) CreditEarnings(ctx context.Context, uid string, amount, hours decimal.Decimal) error {
	const op = "storage.CreditEarnings"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET balance = balance + $2,
			      total_hours = total_hours + $3,
			      total_projects = total_projects + 1
			  WHERE uid = $1`
	res, err := r.q.ExecContext(ctx, query, uid, amount, hours)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: user %s: %w", op, uid, models.ErrNotFound)
	}
	return nil
}

// DebitBalance списывает amount, только если баланса достаточно.
func (r *queries) DebitBalance(ctx context.Context, uid string, amount decimal.Decimal) error {
	const op = "storage.DebitBalance"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET balance = balance - $2
			  WHERE uid = $1 AND balance >= $2`
	res, err := r.q.ExecContext(ctx, query, uid, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return nil
	}

	found, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE uid = $1)`, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return fmt.Errorf("%s: user %s: %w", op, uid, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, models.ErrInsufficientBalance)
}

// ListUserUIDs возвращает uid всех пользователей для сверки балансов.
func (r *queries) ListUserUIDs(ctx context.Context) ([]string, error) {
	const op = "storage.ListUserUIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := r.q.QueryContext(ctx, `SELECT uid FROM users ORDER BY created_at, uid`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
