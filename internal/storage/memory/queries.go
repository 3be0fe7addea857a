package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helptoken/helptoken/internal/models"
)

func (s *Store) EnsureUser(ctx context.Context, uid, role string) error {
	return s.locked(func(l *ledger) error { return l.EnsureUser(ctx, uid, role) })
}

func (s *Store) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var u *models.User
	err := s.locked(func(l *ledger) (err error) {
		u, err = l.GetUser(ctx, uid)
		return err
	})
	return u, err
}

func (s *Store) SetWallet(ctx context.Context, uid, address string) error {
	const op = "memory.SetWallet"
	return s.locked(func(l *ledger) error {
		if err := checkCtx(ctx, op); err != nil {
			return err
		}
		u, ok := s.users[uid]
		if !ok {
			return fmt.Errorf("%s: user %s: %w", op, uid, models.ErrNotFound)
		}
		u.WalletAddress = address
		s.users[uid] = u
		return nil
	})
}

func (s *Store) ListUserUIDs(ctx context.Context) ([]string, error) {
	const op = "memory.ListUserUIDs"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(s.users))
	for uid := range s.users {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids, nil
}

func (s *Store) CreateOpportunity(ctx context.Context, o *models.Opportunity) (int64, error) {
	const op = "memory.CreateOpportunity"
	var id int64
	err := s.locked(func(*ledger) error {
		if err := checkCtx(ctx, op); err != nil {
			return err
		}
		stored := *o
		stored.ID = s.nextID()
		stored.UpdatedAt = stored.CreatedAt
		s.opportunities[stored.ID] = stored
		id = stored.ID
		return nil
	})
	return id, err
}

func (s *Store) UpdateOpportunity(ctx context.Context, o *models.Opportunity) error {
	const op = "memory.UpdateOpportunity"
	return s.locked(func(*ledger) error {
		if err := checkCtx(ctx, op); err != nil {
			return err
		}
		prev, ok := s.opportunities[o.ID]
		if !ok {
			return fmt.Errorf("%s: opportunity %d: %w", op, o.ID, models.ErrNotFound)
		}
		stored := *o
		stored.CreatedAt = prev.CreatedAt
		s.opportunities[o.ID] = stored
		return nil
	})
}

func (s *Store) GetOpportunity(ctx context.Context, id int64) (*models.Opportunity, error) {
	var o *models.Opportunity
	err := s.locked(func(l *ledger) (err error) {
		o, err = l.GetOpportunity(ctx, id)
		return err
	})
	return o, err
}

func (s *Store) ListOpportunities(ctx context.Context, activeOnly bool) ([]*models.Opportunity, error) {
	const op = "memory.ListOpportunities"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	keys := sortedKeys(s.opportunities)
	result := make([]*models.Opportunity, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		o := s.opportunities[keys[i]]
		if activeOnly && !o.Active {
			continue
		}
		result = append(result, &o)
	}
	return result, nil
}

func (s *Store) CreateItem(ctx context.Context, it *models.MarketplaceItem) (int64, error) {
	const op = "memory.CreateItem"
	var id int64
	err := s.locked(func(*ledger) error {
		if err := checkCtx(ctx, op); err != nil {
			return err
		}
		stored := *it
		stored.ID = s.nextID()
		s.items[stored.ID] = stored
		id = stored.ID
		return nil
	})
	return id, err
}

func (s *Store) GetItem(ctx context.Context, id int64) (*models.MarketplaceItem, error) {
	var it *models.MarketplaceItem
	err := s.locked(func(l *ledger) (err error) {
		it, err = l.GetItem(ctx, id)
		return err
	})
	return it, err
}

func (s *Store) ListItems(ctx context.Context, activeOnly bool) ([]*models.MarketplaceItem, error) {
	const op = "memory.ListItems"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	result := make([]*models.MarketplaceItem, 0, len(s.items))
	for _, id := range sortedKeys(s.items) {
		it := s.items[id]
		if activeOnly && !it.Active {
			continue
		}
		result = append(result, &it)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Cost.LessThan(result[j].Cost) })
	return result, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *models.VolunteerSession) (int64, error) {
	var id int64
	err := s.locked(func(l *ledger) (err error) {
		id, err = l.CreateSession(ctx, sess)
		return err
	})
	return id, err
}

func (s *Store) GetSession(ctx context.Context, id int64) (*models.VolunteerSession, error) {
	var sess *models.VolunteerSession
	err := s.locked(func(l *ledger) (err error) {
		sess, err = l.GetSession(ctx, id)
		return err
	})
	return sess, err
}

func (s *Store) listSessions(ctx context.Context, op string, keep func(models.VolunteerSession) bool,
	less func(a, b models.VolunteerSession) bool, limit, offset int) ([]*models.VolunteerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var matched []models.VolunteerSession
	for _, sess := range s.sessions {
		if keep(sess) {
			matched = append(matched, sess)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
	matched = page(matched, limit, offset)
	result := make([]*models.VolunteerSession, 0, len(matched))
	for i := range matched {
		result = append(result, &matched[i])
	}
	return result, nil
}

func (s *Store) ListPendingSessions(ctx context.Context, limit, offset int) ([]*models.VolunteerSession, error) {
	return s.listSessions(ctx, "memory.ListPendingSessions",
		func(sess models.VolunteerSession) bool { return sess.Status == models.SessionPending },
		func(a, b models.VolunteerSession) bool {
			if !a.SubmittedAt.Equal(b.SubmittedAt) {
				return a.SubmittedAt.Before(b.SubmittedAt)
			}
			return a.ID < b.ID
		}, limit, offset)
}

func (s *Store) ListVolunteerSessions(ctx context.Context, uid string, limit, offset int) ([]*models.VolunteerSession, error) {
	return s.listSessions(ctx, "memory.ListVolunteerSessions",
		func(sess models.VolunteerSession) bool { return sess.VolunteerUID == uid },
		func(a, b models.VolunteerSession) bool {
			if !a.SubmittedAt.Equal(b.SubmittedAt) {
				return a.SubmittedAt.After(b.SubmittedAt)
			}
			return a.ID > b.ID
		}, limit, offset)
}

func (s *Store) ListTransactions(ctx context.Context, uid string, limit, offset int) ([]*models.Transaction, error) {
	const op = "memory.ListTransactions"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var own []models.Transaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].UserUID == uid {
			own = append(own, s.transactions[i])
		}
	}
	own = page(own, limit, offset)
	result := make([]*models.Transaction, 0, len(own))
	for i := range own {
		result = append(result, &own[i])
	}
	return result, nil
}

func (s *Store) SumTransactions(ctx context.Context, uid string) (models.LedgerTotals, error) {
	const op = "memory.SumTransactions"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return models.LedgerTotals{}, err
	}
	totals := models.LedgerTotals{Earned: decimal.Zero, Spent: decimal.Zero}
	for _, tx := range s.transactions {
		if tx.UserUID != uid {
			continue
		}
		switch tx.Type {
		case models.TxEarn:
			totals.Earned = totals.Earned.Add(tx.Amount)
		case models.TxSpend:
			totals.Spent = totals.Spent.Add(tx.Amount)
		}
	}
	return totals, nil
}

func (s *Store) GetSettlement(ctx context.Context, id int64) (*models.SettlementRecord, error) {
	const op = "memory.GetSettlement"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	rec, ok := s.settlements[id]
	if !ok {
		return nil, fmt.Errorf("%s: settlement %d: %w", op, id, models.ErrNotFound)
	}
	return &rec, nil
}

func (s *Store) GetSettlementBySession(ctx context.Context, sessionID int64) (*models.SettlementRecord, error) {
	const op = "memory.GetSettlementBySession"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	for _, rec := range s.settlements {
		if rec.SessionID == sessionID {
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%s: settlement for session %d: %w", op, sessionID, models.ErrNotFound)
}

func (s *Store) ClaimDueSettlements(ctx context.Context, at time.Time, lease time.Duration, limit int) ([]*models.SettlementRecord, error) {
	const op = "memory.ClaimDueSettlements"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var due []models.SettlementRecord
	for _, rec := range s.settlements {
		if rec.Status == models.SettlementPending && !rec.NextAttemptAt.After(at) {
			due = append(due, rec)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextAttemptAt.Equal(due[j].NextAttemptAt) {
			return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
		}
		return due[i].ID < due[j].ID
	})
	due = page(due, limit, 0)
	result := make([]*models.SettlementRecord, 0, len(due))
	for i := range due {
		due[i].NextAttemptAt = at.Add(lease)
		due[i].UpdatedAt = at
		s.settlements[due[i].ID] = due[i]
		result = append(result, &due[i])
	}
	return result, nil
}

func (s *Store) ClaimSettlement(ctx context.Context, id int64, at time.Time, lease time.Duration) (*models.SettlementRecord, bool, error) {
	const op = "memory.ClaimSettlement"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}
	rec, ok := s.settlements[id]
	if !ok || rec.Status != models.SettlementPending || rec.NextAttemptAt.After(at) {
		return nil, false, nil
	}
	rec.NextAttemptAt = at.Add(lease)
	rec.UpdatedAt = at
	s.settlements[id] = rec
	return &rec, true, nil
}

func (s *Store) pendingSettlement(op string, id int64) (models.SettlementRecord, error) {
	rec, ok := s.settlements[id]
	if !ok {
		return rec, fmt.Errorf("%s: settlement %d: %w", op, id, models.ErrNotFound)
	}
	if rec.Status != models.SettlementPending {
		return rec, fmt.Errorf("%s: settlement %d: %w", op, id, models.ErrConflict)
	}
	return rec, nil
}

func (s *Store) MarkSettlementConfirmed(ctx context.Context, id int64, reference string, at time.Time) error {
	const op = "memory.MarkSettlementConfirmed"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	rec, err := s.pendingSettlement(op, id)
	if err != nil {
		return err
	}
	confirmedAt := at
	rec.Status = models.SettlementConfirmed
	rec.ExternalReference = reference
	rec.ConfirmedAt = &confirmedAt
	rec.UpdatedAt = at
	rec.Attempts++
	rec.LastError = ""
	s.settlements[id] = rec
	return nil
}

func (s *Store) RecordSettlementFailure(ctx context.Context, id int64, f models.SettlementFailure) error {
	const op = "memory.RecordSettlementFailure"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	rec, err := s.pendingSettlement(op, id)
	if err != nil {
		return err
	}
	rec.Attempts = f.Attempts
	rec.Status = f.Status
	rec.NextAttemptAt = f.NextAttemptAt
	rec.LastError = f.LastError
	rec.UpdatedAt = f.UpdatedAt
	s.settlements[id] = rec
	return nil
}

func (s *Store) ResetSettlement(ctx context.Context, id int64, at time.Time) (*models.SettlementRecord, error) {
	const op = "memory.ResetSettlement"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	rec, ok := s.settlements[id]
	if !ok {
		return nil, fmt.Errorf("%s: settlement %d: %w", op, id, models.ErrNotFound)
	}
	if rec.Status != models.SettlementFailed {
		return nil, fmt.Errorf("%s: settlement %d is %s: %w", op, id, rec.Status, models.ErrConflict)
	}
	rec.Status = models.SettlementPending
	rec.Attempts = 0
	rec.NextAttemptAt = at
	rec.UpdatedAt = at
	rec.LastError = ""
	s.settlements[id] = rec
	return &rec, nil
}

func (s *Store) ListSettlements(ctx context.Context, status models.SettlementStatus, limit, offset int) ([]*models.SettlementRecord, error) {
	const op = "memory.ListSettlements"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var matched []models.SettlementRecord
	for _, id := range sortedKeys(s.settlements) {
		rec := s.settlements[id]
		if status == "" || rec.Status == status {
			matched = append(matched, rec)
		}
	}
	matched = page(matched, limit, offset)
	result := make([]*models.SettlementRecord, 0, len(matched))
	for i := range matched {
		result = append(result, &matched[i])
	}
	return result, nil
}
