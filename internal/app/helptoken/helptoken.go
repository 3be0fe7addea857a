package helptoken

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/helptoken/helptoken/internal/app/bootstrap"
	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/cache"
	"github.com/helptoken/helptoken/internal/config"
	"github.com/helptoken/helptoken/internal/http/handlers/health"
	"github.com/helptoken/helptoken/internal/lib/jwt"
	"github.com/helptoken/helptoken/internal/lib/sl"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/rabbitmq"
	"github.com/helptoken/helptoken/internal/services/accounting"
	"github.com/helptoken/helptoken/internal/services/catalog"
	"github.com/helptoken/helptoken/internal/services/settlement"
	"github.com/helptoken/helptoken/internal/services/verification"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	store  bootstrap.Store
	cache  *cache.Cache

	// embedded не nil, когда очереди нет и сверщик работает в этом процессе.
	embedded *settlement.Reconciler
	conn     *amqp.Connection
	ch       *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := bootstrap.OpenStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{logger: logger, store: store}

	var catalogCache catalog.Cache
	checks := map[string]health.Pinger{"storage": store}
	if cfg.AddressRedis != "" {
		a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, err
		}
		catalogCache = a.cache
		checks["cache"] = a.cache
	}

	gateway, err := bootstrap.Gateway(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	guard := authz.NewGuard()
	m := metrics.New(prometheus.DefaultRegisterer)
	engine := accounting.NewEngine(logger, store, guard, m)
	reconciler := bootstrap.Reconciler(cfg, logger, store, gateway, guard, m)

	var notifier verification.Notifier = reconciler
	if cfg.RabbitMQ.URL != "" {
		a.conn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			a.close()
			return nil, err
		}
		a.ch, err = rabbitmq.SetupChannel(a.conn, cfg.Exchange, rabbitmq.SettlementQueues(cfg.Queue, cfg.RoutingKey))
		if err != nil {
			a.close()
			return nil, err
		}
		queue := settlement.NewQueueNotifier(a.ch, cfg.Exchange, cfg.RoutingKey)
		reconciler.NotifyRetriesVia(queue)
		notifier = queue
	} else {
		logger.Info("rabbitmq url is empty, running settlement reconciler in process")
		a.embedded = reconciler
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Verification: verification.NewService(logger, store, engine, notifier, guard, m),
		Accounting:   engine,
		Catalog:      catalog.NewService(logger, store, catalogCache, cfg.CatalogTTL, guard),
		Settlements:  reconciler,
		Gateway:      gateway,
		Tokens:       jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Metrics:      m.Handler(),
		Health:       checks,
		RPS:          cfg.RPS,
		Burst:        cfg.Burst,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	reconcilerDone := make(chan struct{})
	if a.embedded != nil {
		go func() {
			defer close(reconcilerDone)
			if err := a.embedded.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("settlement reconciler stopped", sl.Err(err))
			}
		}()
	} else {
		close(reconcilerDone)
	}

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	stop()
	<-reconcilerDone
	a.close()
	return err
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
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
