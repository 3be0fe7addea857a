package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/storage"
)

// ledger реализует storage.Ledger поверх Store, мьютекс которого уже захвачен.
type ledger struct {
	s    *Store
	undo []func()
}

var _ storage.Ledger = (*ledger)(nil)

func (l *ledger) onRollback(fn func()) {
	l.undo = append(l.undo, fn)
}

func (l *ledger) rollback() {
	for i := len(l.undo) - 1; i >= 0; i-- {
		l.undo[i]()
	}
	l.undo = nil
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func (l *ledger) putUser(u models.User) {
	prev, existed := l.s.users[u.UID]
	l.s.users[u.UID] = u
	l.onRollback(func() {
		if existed {
			l.s.users[u.UID] = prev
		} else {
			delete(l.s.users, u.UID)
		}
	})
}

func (l *ledger) putSession(sess models.VolunteerSession) {
	prev, existed := l.s.sessions[sess.ID]
	l.s.sessions[sess.ID] = sess
	l.onRollback(func() {
		if existed {
			l.s.sessions[sess.ID] = prev
		} else {
			delete(l.s.sessions, sess.ID)
		}
	})
}

func (l *ledger) putSettlement(rec models.SettlementRecord) {
	prev, existed := l.s.settlements[rec.ID]
	l.s.settlements[rec.ID] = rec
	l.onRollback(func() {
		if existed {
			l.s.settlements[rec.ID] = prev
		} else {
			delete(l.s.settlements, rec.ID)
		}
	})
}

func (l *ledger) EnsureUser(ctx context.Context, uid, role string) error {
	const op = "memory.EnsureUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	u, ok := l.s.users[uid]
	if ok && u.Role == role {
		return nil
	}
	if !ok {
		u = models.User{UID: uid, CreatedAt: now()}
	}
	u.Role = role
	l.putUser(u)
	return nil
}

func (l *ledger) GetUser(ctx context.Context, uid string) (*models.User, error) {
	const op = "memory.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	u, ok := l.s.users[uid]
	if !ok {
		return nil, fmt.Errorf("%s: user %s: %w", op, uid, models.ErrNotFound)
	}
	return &u, nil
}

func (l *ledger) GetOpportunity(ctx context.Context, id int64) (*models.Opportunity, error) {
	const op = "memory.GetOpportunity"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	o, ok := l.s.opportunities[id]
	if !ok {
		return nil, fmt.Errorf("%s: opportunity %d: %w", op, id, models.ErrNotFound)
	}
	return &o, nil
}

func (l *ledger) GetItem(ctx context.Context, id int64) (*models.MarketplaceItem, error) {
	const op = "memory.GetItem"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	it, ok := l.s.items[id]
	if !ok {
		return nil, fmt.Errorf("%s: item %d: %w", op, id, models.ErrNotFound)
	}
	return &it, nil
}

func (l *ledger) CreateSession(ctx context.Context, sess *models.VolunteerSession) (int64, error) {
	const op = "memory.CreateSession"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	if _, ok := l.s.users[sess.VolunteerUID]; !ok {
		return 0, fmt.Errorf("%s: user %s: %w", op, sess.VolunteerUID, models.ErrNotFound)
	}
	if _, ok := l.s.opportunities[sess.OpportunityID]; !ok {
		return 0, fmt.Errorf("%s: opportunity %d: %w", op, sess.OpportunityID, models.ErrNotFound)
	}
	stored := *sess
	stored.ID = l.s.nextID()
	stored.Status = models.SessionPending
	l.putSession(stored)
	return stored.ID, nil
}

func (l *ledger) GetSession(ctx context.Context, id int64) (*models.VolunteerSession, error) {
	const op = "memory.GetSession"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	sess, ok := l.s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: session %d: %w", op, id, models.ErrNotFound)
	}
	return &sess, nil
}

func (l *ledger) DecideSession(ctx context.Context, id int64, d models.Decision) (*models.VolunteerSession, error) {
	const op = "memory.DecideSession"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	sess, ok := l.s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: session %d: %w", op, id, models.ErrNotFound)
	}
	if sess.Status != models.SessionPending {
		return nil, fmt.Errorf("%s: session %d already processed: %w", op, id, models.ErrConflict)
	}
	decidedAt := d.DecidedAt
	sess.Status = d.Status
	sess.VerifierUID = d.VerifierUID
	sess.VerifierNotes = d.Notes
	sess.DecidedAt = &decidedAt
	l.putSession(sess)
	return &sess, nil
}

func (l *ledger) CreditEarnings(ctx context.Context, uid string, amount, hours decimal.Decimal) error {
	const op = "memory.CreditEarnings"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	u, ok := l.s.users[uid]
	if !ok {
		return fmt.Errorf("%s: user %s: %w", op, uid, models.ErrNotFound)
	}
	u.Balance = u.Balance.Add(amount)
	u.TotalHours = u.TotalHours.Add(hours)
	u.TotalProjects++
	l.putUser(u)
	return nil
}

func (l *ledger) DebitBalance(ctx context.Context, uid string, amount decimal.Decimal) error {
	const op = "memory.DebitBalance"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	u, ok := l.s.users[uid]
	if !ok {
		return fmt.Errorf("%s: user %s: %w", op, uid, models.ErrNotFound)
	}
	if u.Balance.LessThan(amount) {
		return fmt.Errorf("%s: %w", op, models.ErrInsufficientBalance)
	}
	u.Balance = u.Balance.Sub(amount)
	l.putUser(u)
	return nil
}

func (l *ledger) AppendTransaction(ctx context.Context, tx *models.Transaction) (int64, error) {
	const op = "memory.AppendTransaction"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	if !tx.Amount.IsPositive() {
		return 0, fmt.Errorf("%s: amount must be positive: %w", op, models.ErrValidation)
	}
	if tx.Type == models.TxEarn && tx.SessionID != nil {
		for _, existing := range l.s.transactions {
			if existing.Type == models.TxEarn && existing.SessionID != nil && *existing.SessionID == *tx.SessionID {
				return 0, fmt.Errorf("%s: earn for session %d exists: %w", op, *tx.SessionID, models.ErrConflict)
			}
		}
	}
	stored := *tx
	stored.ID = l.s.nextID()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now()
	}
	n := len(l.s.transactions)
	l.s.transactions = append(l.s.transactions, stored)
	l.onRollback(func() { l.s.transactions = l.s.transactions[:n] })
	return stored.ID, nil
}

func (l *ledger) CreateSettlement(ctx context.Context, rec *models.SettlementRecord) (int64, error) {
	const op = "memory.CreateSettlement"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	for _, existing := range l.s.settlements {
		if existing.SessionID == rec.SessionID {
			return 0, fmt.Errorf("%s: settlement for session %d exists: %w", op, rec.SessionID, models.ErrConflict)
		}
	}
	stored := *rec
	stored.ID = l.s.nextID()
	stored.Status = models.SettlementPending
	stored.Attempts = 0
	stored.UpdatedAt = stored.CreatedAt
	l.putSettlement(stored)
	return stored.ID, nil
}
