package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/helptoken/helptoken/internal/migrations"
	"github.com/helptoken/helptoken/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя с заданным балансом
func (f *TestDataFactory) CreateUser(t *testing.T, role string, balance decimal.Decimal) string {
	uid := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO users (uid, role, balance) VALUES ($1, $2, $3)`, uid, role, balance)
	require.NoError(t, err)
	return uid
}

// CreateOpportunity создает активную возможность
func (f *TestDataFactory) CreateOpportunity(t *testing.T, rate string) int64 {
	id, err := f.storage.CreateOpportunity(context.Background(), &models.Opportunity{
		Title:      "Beach cleanup",
		RewardRate: decimal.RequireFromString(rate),
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

// CreateSession создает ожидающую сессию
func (f *TestDataFactory) CreateSession(t *testing.T, opportunityID int64, volunteerUID string, hours, rate string) int64 {
	h := decimal.RequireFromString(hours)
	r := decimal.RequireFromString(rate)
	id, err := f.storage.CreateSession(context.Background(), &models.VolunteerSession{
		OpportunityID:    opportunityID,
		VolunteerUID:     volunteerUID,
		Hours:            h,
		FrozenRewardRate: r,
		TokensEarned:     models.ComputeTokens(h, r),
		SubmittedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

// CreateSettlement создает pending-запись расчёта для сессии
func (f *TestDataFactory) CreateSettlement(t *testing.T, sessionID, opportunityID int64, volunteerUID string, due time.Time) int64 {
	id, err := f.storage.CreateSettlement(context.Background(), &models.SettlementRecord{
		SessionID:      sessionID,
		OpportunityID:  opportunityID,
		VolunteerUID:   volunteerUID,
		Minutes:        240,
		IdempotencyKey: uuid.NewString(),
		NextAttemptAt:  due,
		CreatedAt:      due,
	})
	require.NoError(t, err)
	return id
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(storage))

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}

	return storage, cleanup
}
