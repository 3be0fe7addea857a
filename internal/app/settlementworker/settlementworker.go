// Package settlementworker — процесс, который доводит записи расчёта до внешнего реестра:
// читает уведомления из RabbitMQ, по расписанию обходит просроченные записи
// и сверяет балансы с журналом.
package settlementworker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/helptoken/helptoken/internal/app/bootstrap"
	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/config"
	"github.com/helptoken/helptoken/internal/http/handlers/health"
	"github.com/helptoken/helptoken/internal/lib/sl"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/rabbitmq"
	"github.com/helptoken/helptoken/internal/services/accounting"
	"github.com/helptoken/helptoken/internal/services/settlement"
	"github.com/helptoken/helptoken/internal/storage/repository"
)

// Sweeper обходит просроченные записи расчёта.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Auditor сверяет балансы пользователей с журналом.
type Auditor interface {
	AuditAll(ctx context.Context) ([]models.AuditResult, error)
}

// App представляет приложение обработчика расчётов.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *repository.Storage
	reconciler *settlement.Reconciler
	engine     *accounting.Engine
	cron       *cron.Cron
	server     *http.Server
	conn       *amqp.Connection
	ch         *amqp.Channel
}

// New создает новый экземпляр приложения обработчика расчётов.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := bootstrap.OpenReadyStorage(cfg, 10, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	a := &App{cfg: cfg, logger: logger, db: db}

	gateway, err := bootstrap.Gateway(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	guard := authz.NewGuard()
	m := metrics.New(prometheus.DefaultRegisterer)
	a.reconciler = bootstrap.Reconciler(cfg, logger, db, gateway, guard, m)
	a.engine = accounting.NewEngine(logger, db, guard, m)

	if cfg.RabbitMQ.URL != "" {
		a.conn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		a.ch, err = rabbitmq.SetupChannel(a.conn, cfg.Exchange, rabbitmq.SettlementQueues(cfg.Queue, cfg.RoutingKey))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
	} else {
		logger.Warn("rabbitmq url is empty, settlements are picked up by scheduled sweeps only")
	}

	a.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	router := chi.NewRouter()
	router.Get("/health", health.New(logger, map[string]health.Pinger{"storage": db}).ServeHTTP)
	router.Handle("/metrics", m.Handler())
	a.server = &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// scheduleJobs регистрирует периодический обход записей и сверку балансов.
func scheduleJobs(ctx context.Context, c *cron.Cron, log *slog.Logger, cfg config.Settlement, sweeper Sweeper, auditor Auditor) error {
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		if _, err := sweeper.Sweep(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduled settlement sweep failed", sl.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep_schedule %q: %w", cfg.SweepSchedule, err)
	}

	if _, err := c.AddFunc(cfg.AuditSchedule, func() {
		mismatches, err := auditor.AuditAll(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error("scheduled balance audit failed", sl.Err(err))
			return
		}
		for _, m := range mismatches {
			log.Error("balance does not match journal",
				slog.String("user_uid", m.UserUID),
				slog.String("balance", m.Balance.String()),
				slog.String("journal", m.Journal.String()),
			)
		}
	}); err != nil {
		return fmt.Errorf("invalid audit_schedule %q: %w", cfg.AuditSchedule, err)
	}
	return nil
}

// Run запускает обработчик.
func (a *App) Run(ctx context.Context) error {
	if err := scheduleJobs(ctx, a.cron, a.logger, a.cfg.Settlement, a.reconciler, a.engine); err != nil {
		a.close()
		return err
	}

	if a.ch != nil {
		handler := func(body []byte) error {
			return a.reconciler.HandleMessage(ctx, body)
		}
		if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.cfg.Queue, handler); err != nil {
			a.close()
			return err
		}
	}

	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	a.cron.Start()
	// Первый обход сразу: записи могли накопиться, пока процесс не работал.
	if _, err := a.reconciler.Sweep(ctx); err != nil && ctx.Err() == nil {
		a.logger.Error("initial settlement sweep failed", sl.Err(err))
	}

	<-ctx.Done()

	a.logger.Info("shutting down settlement worker")
	<-a.cron.Stop().Done()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to shutdown metrics server", sl.Err(err))
	}
	a.close()
	return nil
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
