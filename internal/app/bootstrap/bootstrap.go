// Package bootstrap собирает общие для процессов зависимости: хранилище, шлюз реестра
// и сверщик расчётов, по загруженной конфигурации.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/config"
	"github.com/helptoken/helptoken/internal/ledgerclient"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/migrations"
	"github.com/helptoken/helptoken/internal/services/accounting"
	"github.com/helptoken/helptoken/internal/services/catalog"
	"github.com/helptoken/helptoken/internal/services/settlement"
	"github.com/helptoken/helptoken/internal/services/verification"
	"github.com/helptoken/helptoken/internal/storage/memory"
	"github.com/helptoken/helptoken/internal/storage/repository"
)

// Store объединяет всё, что сервисы требуют от хранилища.
type Store interface {
	accounting.Store
	verification.Store
	settlement.Store
	catalog.Repository
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*repository.Storage)(nil)
)

// OpenStorage открывает PostgreSQL и применяет миграции, либо создаёт хранилище
// в памяти, если строка подключения пуста.
func OpenStorage(cfg *config.Config, log *slog.Logger) (Store, error) {
	const op = "bootstrap.OpenStorage"
	if cfg.UsesMemoryStorage() {
		log.Warn("storage connection string is empty, using in-memory storage")
		return memory.New(), nil
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// OpenReadyStorage подключается к PostgreSQL и ждёт, пока другой процесс применит миграции.
func OpenReadyStorage(cfg *config.Config, retries int, delay time.Duration) (*repository.Storage, error) {
	const op = "bootstrap.OpenReadyStorage"
	if cfg.UsesMemoryStorage() {
		return nil, fmt.Errorf("%s: storage_connection_string is required", op)
	}
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := waitForDB(db, retries, delay); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

func waitForDB(db *repository.Storage, retries int, delay time.Duration) error {
	var err error
	for range max(retries, 1) {
		if err = repository.CheckDatabaseReady(db); err == nil {
			return nil
		}
		time.Sleep(delay)
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// Gateway возвращает клиента реестра за автоматическим выключателем.
func Gateway(cfg *config.Config, log *slog.Logger) (ledgerclient.Gateway, error) {
	if cfg.LedgerGateway.URL == "" {
		log.Warn("ledger gateway url is empty, settlements will fail until it is configured")
		return ledgerclient.Unconfigured{}, nil
	}
	client, err := ledgerclient.NewClient(ledgerclient.Config{
		URL:             cfg.LedgerGateway.URL,
		ContractAddress: cfg.ContractAddress,
		Timeout:         cfg.LedgerGateway.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return ledgerclient.NewBreaker(log, client, ledgerclient.BreakerConfig{
		ConsecutiveFailures: cfg.BreakerFailures,
		Interval:            cfg.BreakerInterval,
		OpenTimeout:         cfg.BreakerOpenDelay,
	}), nil
}

// Reconciler создаёт сверщик расчётов с параметрами из секции settlement.
func Reconciler(cfg *config.Config, log *slog.Logger, store settlement.Store, client settlement.Client, guard *authz.Guard, m *metrics.Metrics) *settlement.Reconciler {
	return settlement.NewReconciler(log, store, client, guard, m, settlement.Config{
		MaxAttempts:    cfg.MaxAttempts,
		AttemptTimeout: cfg.AttemptTimeout,
		Lease:          cfg.Lease,
		BatchSize:      cfg.BatchSize,
		PollInterval:   cfg.PollInterval,
		Backoff: settlement.Backoff{
			Initial: cfg.InitialBackoff,
			Max:     cfg.MaxBackoff,
			Jitter:  cfg.Jitter,
		},
	})
}
