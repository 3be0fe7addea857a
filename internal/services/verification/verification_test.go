package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/services/accounting"
	"github.com/helptoken/helptoken/internal/storage"
	"github.com/helptoken/helptoken/internal/storage/memory"
)

const (
	volunteerUID = "5a0b9a0e-1c1e-4c1e-8d7a-1f0c5c1d2e01"
	otherUID     = "5a0b9a0e-1c1e-4c1e-8d7a-1f0c5c1d2e02"
	verifierUID  = "5a0b9a0e-1c1e-4c1e-8d7a-1f0c5c1d2e03"
	adminUID     = "5a0b9a0e-1c1e-4c1e-8d7a-1f0c5c1d2e04"
)

var (
	volunteer = authz.Identity{UserUID: volunteerUID, Role: authz.RoleVolunteer}
	other     = authz.Identity{UserUID: otherUID, Role: authz.RoleVolunteer}
	verifier  = authz.Identity{UserUID: verifierUID, Role: authz.RoleVerifier}
	admin     = authz.Identity{UserUID: adminUID, Role: authz.RoleAdmin}
)

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, rec *models.SettlementRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type EarnerMock struct {
	mock.Mock
}

func (m *EarnerMock) ApplyEarn(ctx context.Context, l storage.Ledger, s *models.VolunteerSession) (*models.Transaction, error) {
	args := m.Called(ctx, l, s)
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type fixture struct {
	svc      *Service
	engine   *accounting.Engine
	store    *memory.Store
	notifier *NotifierMock
	oppID    int64
}

func newFixture(t *testing.T, rate string) *fixture {
	t.Helper()
	store := memory.New()
	guard := authz.NewGuard()
	m := metrics.NewNoop()
	log := newNoopLogger()
	engine := accounting.NewEngine(log, store, guard, m)
	notifier := new(NotifierMock)

	oppID, err := store.CreateOpportunity(context.Background(), &models.Opportunity{
		Title: "River cleanup", RewardRate: decimal.RequireFromString(rate), Active: true, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	return &fixture{
		svc:      NewService(log, store, engine, notifier, guard, m),
		engine:   engine,
		store:    store,
		notifier: notifier,
		oppID:    oppID,
	}
}

func (f *fixture) submit(t *testing.T, id authz.Identity, hours string) *models.VolunteerSession {
	t.Helper()
	sess, err := f.svc.Submit(context.Background(), id, models.SubmitSessionRequest{
		OpportunityID: f.oppID,
		Hours:         decimal.RequireFromString(hours),
	})
	require.NoError(t, err)
	return sess
}

func ptr[T any](v T) *T { return &v }

func TestSubmit_FreezesRateAndComputesTokens(t *testing.T) {
	f := newFixture(t, "2.5")
	ctx := context.Background()

	sess := f.submit(t, volunteer, "4")
	assert.Equal(t, models.SessionPending, sess.Status)
	assert.True(t, decimal.NewFromInt(10).Equal(sess.TokensEarned), "tokens %s", sess.TokensEarned)
	assert.True(t, decimal.RequireFromString("2.5").Equal(sess.FrozenRewardRate))

	opp, err := f.store.GetOpportunity(ctx, f.oppID)
	require.NoError(t, err)
	opp.RewardRate = decimal.NewFromInt(5)
	require.NoError(t, f.store.UpdateOpportunity(ctx, opp))

	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()
	decided, err := f.svc.Decide(ctx, verifier, sess.ID, true, "looks good")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(decided.TokensEarned))

	u, err := f.store.GetUser(ctx, volunteerUID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(u.Balance), "balance %s", u.Balance)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *models.SubmitSessionRequest)
		id      authz.Identity
		wantErr error
	}{
		{name: "too few hours", mutate: func(r *models.SubmitSessionRequest) { r.Hours = decimal.RequireFromString("0.4") }, wantErr: models.ErrValidation},
		{name: "too many hours", mutate: func(r *models.SubmitSessionRequest) { r.Hours = decimal.RequireFromString("12.5") }, wantErr: models.ErrValidation},
		{name: "fractional hours in range", mutate: func(r *models.SubmitSessionRequest) { r.Hours = decimal.RequireFromString("1.255") }},
		{name: "zero opportunity", mutate: func(r *models.SubmitSessionRequest) { r.OpportunityID = 0 }, wantErr: models.ErrValidation},
		{name: "unknown opportunity", mutate: func(r *models.SubmitSessionRequest) { r.OpportunityID = 999 }, wantErr: models.ErrNotFound},
		{name: "bad photo url", mutate: func(r *models.SubmitSessionRequest) { r.PhotoURL = "not a url" }, wantErr: models.ErrValidation},
		{name: "latitude out of range", mutate: func(r *models.SubmitSessionRequest) {
			r.Location = &models.Location{Latitude: ptr(91.0), Longitude: ptr(10.0)}
		}, wantErr: models.ErrValidation},
		{name: "verifier cannot submit", id: verifier, wantErr: models.ErrForbidden},
		{name: "boundary hours", mutate: func(r *models.SubmitSessionRequest) { r.Hours = decimal.RequireFromString("0.5") }},
		{name: "with location and photo", mutate: func(r *models.SubmitSessionRequest) {
			r.PhotoURL = "https://example.org/p.jpg"
			r.Location = &models.Location{Latitude: ptr(-33.9), Longitude: ptr(151.2)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "2")
			req := models.SubmitSessionRequest{OpportunityID: f.oppID, Hours: decimal.NewFromInt(2)}
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			id := volunteer
			if tt.id.UserUID != "" {
				id = tt.id
			}

			sess, err := f.svc.Submit(context.Background(), id, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sess)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, sess.ID)
		})
	}
}

func TestSubmit_FractionalHoursAreExact(t *testing.T) {
	tests := []struct {
		hours      string
		wantTokens string
		wantMins   int64
	}{
		{hours: "1.125", wantTokens: "2.8125", wantMins: 67},
		{hours: "0.501", wantTokens: "1.2525", wantMins: 30},
		{hours: "11.999", wantTokens: "29.9975", wantMins: 719},
	}

	for _, tt := range tests {
		t.Run(tt.hours, func(t *testing.T) {
			f := newFixture(t, "2.5")
			sess := f.submit(t, volunteer, tt.hours)
			assert.True(t, decimal.RequireFromString(tt.hours).Equal(sess.Hours))
			assert.True(t, decimal.RequireFromString(tt.wantTokens).Equal(sess.TokensEarned), "tokens %s", sess.TokensEarned)
			assert.Equal(t, tt.wantMins, models.SessionMinutes(sess.Hours))
		})
	}
}

func TestSubmit_InactiveOpportunity(t *testing.T) {
	f := newFixture(t, "2")
	ctx := context.Background()
	opp, err := f.store.GetOpportunity(ctx, f.oppID)
	require.NoError(t, err)
	opp.Active = false
	require.NoError(t, f.store.UpdateOpportunity(ctx, opp))

	_, err = f.svc.Submit(ctx, volunteer, models.SubmitSessionRequest{OpportunityID: f.oppID, Hours: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDecide_ApproveCreatesSettlement(t *testing.T) {
	f := newFixture(t, "2.5")
	ctx := context.Background()
	sess := f.submit(t, volunteer, "4")

	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(rec *models.SettlementRecord) bool {
		return rec.SessionID == sess.ID && rec.ID > 0
	})).Return(nil).Once()

	decided, err := f.svc.Decide(ctx, admin, sess.ID, true, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.SessionVerified, decided.Status)
	assert.Equal(t, adminUID, decided.VerifierUID)
	assert.Equal(t, "ok", decided.VerifierNotes)
	require.NotNil(t, decided.DecidedAt)

	rec, err := f.store.GetSettlementBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementPending, rec.Status)
	assert.Equal(t, int64(240), rec.Minutes)
	assert.Equal(t, 0, rec.Attempts)
	assert.NotEmpty(t, rec.IdempotencyKey)
	assert.Equal(t, volunteerUID, rec.VolunteerUID)

	txs, err := f.store.ListTransactions(ctx, volunteerUID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TxEarn, txs[0].Type)
	assert.True(t, decimal.NewFromInt(10).Equal(txs[0].Amount))

	f.notifier.AssertExpectations(t)
}

func TestDecide_RejectRecordsOnlyStatus(t *testing.T) {
	f := newFixture(t, "2")
	ctx := context.Background()
	sess := f.submit(t, volunteer, "3")

	decided, err := f.svc.Decide(ctx, verifier, sess.ID, false, "no evidence")
	require.NoError(t, err)
	assert.Equal(t, models.SessionRejected, decided.Status)

	_, err = f.store.GetSettlementBySession(ctx, sess.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	u, err := f.store.GetUser(ctx, volunteerUID)
	require.NoError(t, err)
	assert.True(t, u.Balance.IsZero())

	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestDecide_Errors(t *testing.T) {
	f := newFixture(t, "2")
	ctx := context.Background()
	sess := f.submit(t, volunteer, "3")

	_, err := f.svc.Decide(ctx, volunteer, sess.ID, true, "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.Decide(ctx, volunteer, 9999, true, "")
	assert.ErrorIs(t, err, models.ErrForbidden, "capability is checked before lookup")

	_, err = f.svc.Decide(ctx, verifier, 9999, true, "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	self := authz.Identity{UserUID: volunteerUID, Role: authz.RoleVerifier}
	_, err = f.svc.Decide(ctx, self, sess.ID, true, "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.Decide(ctx, verifier, sess.ID, false, "")
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, admin, sess.ID, true, "")
	assert.ErrorIs(t, err, models.ErrConflict)

	got, err := f.store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRejected, got.Status)
	assert.Equal(t, verifierUID, got.VerifierUID)
}

func TestDecide_ConcurrentApprovalsCreditOnce(t *testing.T) {
	f := newFixture(t, "2.5")
	ctx := context.Background()
	sess := f.submit(t, volunteer, "4")
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	const deciders = 10
	var (
		wg                 sync.WaitGroup
		mu                 sync.Mutex
		succeeded, clashes int
	)
	for range deciders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Decide(ctx, verifier, sess.ID, true, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, models.ErrConflict):
				clashes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, deciders-1, clashes)

	u, err := f.store.GetUser(ctx, volunteerUID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(u.Balance))
	assert.Equal(t, 1, u.TotalProjects)

	res, err := f.engine.Audit(ctx, volunteerUID)
	require.NoError(t, err)
	assert.False(t, res.Mismatch)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestDecide_EarnFailureRollsBack(t *testing.T) {
	store := memory.New()
	guard := authz.NewGuard()
	earner := new(EarnerMock)
	notifier := new(NotifierMock)
	svc := NewService(newNoopLogger(), store, earner, notifier, guard, metrics.NewNoop())
	ctx := context.Background()

	oppID, err := store.CreateOpportunity(ctx, &models.Opportunity{Title: "x", RewardRate: decimal.NewFromInt(1), Active: true})
	require.NoError(t, err)
	sess, err := svc.Submit(ctx, volunteer, models.SubmitSessionRequest{OpportunityID: oppID, Hours: decimal.NewFromInt(1)})
	require.NoError(t, err)

	earner.On("ApplyEarn", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("disk full")).Once()

	_, err = svc.Decide(ctx, verifier, sess.ID, true, "")
	require.Error(t, err)

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionPending, got.Status)
	assert.Empty(t, got.VerifierUID)
	_, err = store.GetSettlementBySession(ctx, sess.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestDecide_NotifyFailureDoesNotFailDecision(t *testing.T) {
	f := newFixture(t, "1")
	sess := f.submit(t, volunteer, "1")
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	decided, err := f.svc.Decide(context.Background(), verifier, sess.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, models.SessionVerified, decided.Status)
}

func TestListPending_OldestFirst(t *testing.T) {
	f := newFixture(t, "1")
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	f.svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(-tick) * time.Hour)
	}

	first := f.submit(t, volunteer, "1")
	second := f.submit(t, other, "1")
	third := f.submit(t, volunteer, "2")

	_, err := f.svc.ListPending(ctx, volunteer, 10, 0)
	assert.ErrorIs(t, err, models.ErrForbidden)

	pending, err := f.svc.ListPending(ctx, verifier, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{pending[0].ID, pending[1].ID, pending[2].ID})

	f.svc.now = func() time.Time { return base }
	_, err = f.svc.Decide(ctx, verifier, third.ID, false, "")
	require.NoError(t, err)

	pending, err = f.svc.ListPending(ctx, admin, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID)
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t, "2")
	ctx := context.Background()
	sess := f.submit(t, volunteer, "2")

	_, err := f.svc.Get(ctx, other, sess.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	details, err := f.svc.Get(ctx, volunteer, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, details.Settlement)

	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()
	_, err = f.svc.Decide(ctx, verifier, sess.ID, true, "")
	require.NoError(t, err)

	details, err = f.svc.Get(ctx, verifier, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Settlement)
	assert.Equal(t, models.SettlementPending, details.Settlement.Status)
	assert.Equal(t, models.SessionVerified, details.Session.Status)

	mine, err := f.svc.ListMine(ctx, volunteer, 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
