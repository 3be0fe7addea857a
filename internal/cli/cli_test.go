package cli

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helptoken/helptoken/internal/app/bootstrap"
	"github.com/helptoken/helptoken/internal/config"
	"github.com/helptoken/helptoken/internal/lib/jwt"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/storage"
	"github.com/helptoken/helptoken/internal/storage/memory"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWTSecretKey = "cli-secret"
	cfg.TokenTTL = time.Hour
	cfg.Settlement = config.Settlement{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
	return cfg
}

// nopCloser не даёт команде закрыть общее хранилище теста.
type nopCloser struct{ *memory.Store }

func (nopCloser) Close() error { return nil }

func run(t *testing.T, store *memory.Store, args ...string) (string, error) {
	t.Helper()
	a := &app{
		loadConfig: func(string) (*config.Config, error) { return testConfig(), nil },
		openStore:  func(*config.Config) (bootstrap.Store, error) { return nopCloser{store}, nil },
	}
	root := newRootCommand(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", "test.yaml"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seedSettlement(t *testing.T, store *memory.Store, status models.SettlementStatus) int64 {
	t.Helper()
	var id int64
	err := store.WithinTx(context.Background(), func(ctx context.Context, l storage.Ledger) error {
		var err error
		id, err = l.CreateSettlement(ctx, &models.SettlementRecord{
			SessionID:      7,
			OpportunityID:  1,
			VolunteerUID:   uuid.NewString(),
			Minutes:        60,
			IdempotencyKey: uuid.NewString(),
			Status:         models.SettlementPending,
			NextAttemptAt:  time.Now(),
		})
		return err
	})
	require.NoError(t, err)
	if status == models.SettlementFailed {
		require.NoError(t, store.RecordSettlementFailure(context.Background(), id, models.SettlementFailure{
			Attempts: 3, Status: models.SettlementFailed, NextAttemptAt: time.Now(), LastError: "gateway timeout", UpdatedAt: time.Now(),
		}))
	}
	return id
}

func TestSettlementsListAndRetry(t *testing.T) {
	store := memory.New()
	failedID := seedSettlement(t, store, models.SettlementFailed)
	seedSettlement(t, store, models.SettlementPending)

	out, err := run(t, store, "settlements", "list", "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "gateway timeout")
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("\n")), out)

	failed := strconv.FormatInt(failedID, 10)
	out, err = run(t, store, "settlements", "retry", failed)
	require.NoError(t, err)
	assert.Contains(t, out, "is pending again")

	rec, err := store.GetSettlement(context.Background(), failedID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementPending, rec.Status)
	assert.Zero(t, rec.Attempts)

	_, err = run(t, store, "settlements", "retry", failed)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = run(t, store, "settlements", "list", "--status", "bogus")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = run(t, store, "settlements", "retry", failed, "--operator", "not-a-uuid")
	assert.Error(t, err)
}

func TestAudit(t *testing.T) {
	store := memory.New()
	uid := uuid.NewString()
	require.NoError(t, store.EnsureUser(context.Background(), uid, "volunteer"))

	out, err := run(t, store, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "all balances match")

	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, l storage.Ledger) error {
		return l.CreditEarnings(ctx, uid, decimal.NewFromInt(3), decimal.Zero)
	}))
	out, err = run(t, store, "audit")
	require.Error(t, err)
	assert.Contains(t, out, uid)

	_, err = run(t, store, "audit", "--user", uid)
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	uid := uuid.NewString()
	out, err := run(t, memory.New(), "token", "--uid", uid, "--role", "verifier")
	require.NoError(t, err)

	claims, err := jwt.NewJWTMaker("cli-secret", time.Hour).ParseToken(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserUID())
	assert.Equal(t, "verifier", claims.Role)

	_, err = run(t, memory.New(), "token", "--role", "root")
	assert.Error(t, err)
}

func TestConfigRequired(t *testing.T) {
	root := newRootCommand(&app{loadConfig: config.Load})
	root.SetArgs([]string{"audit", "--config", ""})
	root.SetOut(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path is required")
}
