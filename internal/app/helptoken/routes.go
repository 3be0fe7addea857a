// Package helptoken собирает HTTP API сервиса: маршруты, хранилище, сервисы
// и доставку записей расчёта обработчику.
package helptoken

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/helptoken/helptoken/docs"

	"github.com/helptoken/helptoken/internal/http/handlers/catalog/item"
	"github.com/helptoken/helptoken/internal/http/handlers/catalog/opportunity"
	"github.com/helptoken/helptoken/internal/http/handlers/health"
	"github.com/helptoken/helptoken/internal/http/handlers/ledger/balance"
	"github.com/helptoken/helptoken/internal/http/handlers/ledger/onchain"
	"github.com/helptoken/helptoken/internal/http/handlers/ledger/redeem"
	"github.com/helptoken/helptoken/internal/http/handlers/ledger/transactions"
	"github.com/helptoken/helptoken/internal/http/handlers/ledger/wallet"
	"github.com/helptoken/helptoken/internal/http/handlers/session/decide"
	"github.com/helptoken/helptoken/internal/http/handlers/session/mine"
	"github.com/helptoken/helptoken/internal/http/handlers/session/pending"
	"github.com/helptoken/helptoken/internal/http/handlers/session/read"
	"github.com/helptoken/helptoken/internal/http/handlers/session/submit"
	settlementhandlers "github.com/helptoken/helptoken/internal/http/handlers/settlement"
	"github.com/helptoken/helptoken/internal/http/middlewarectx"
	"github.com/helptoken/helptoken/internal/services/accounting"
	"github.com/helptoken/helptoken/internal/services/catalog"
	"github.com/helptoken/helptoken/internal/services/settlement"
	"github.com/helptoken/helptoken/internal/services/verification"
)

// Services — зависимости обработчиков.
type Services struct {
	Verification *verification.Service
	Accounting   *accounting.Engine
	Catalog      *catalog.Service
	Settlements  *settlement.Reconciler
	Gateway      onchain.Gateway
	Tokens       middlewarectx.TokenParser
	Metrics      http.Handler
	Health       map[string]health.Pinger
	RPS          float64
	Burst        int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", s.Metrics)
	r.Get("/docs/*", httpSwagger.WrapHandler)

	opportunities := opportunity.New(logger, s.Catalog)
	items := item.New(logger, s.Catalog)
	settlements := settlementhandlers.New(logger, s.Settlements)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(s.Tokens, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger, s.RPS, s.Burst))

		r.Get("/opportunities", opportunities.List)
		r.Post("/opportunities", opportunities.Create)
		r.Get("/opportunities/{id}", opportunities.Get)
		r.Put("/opportunities/{id}", opportunities.Update)

		r.Get("/marketplace/items", items.List)
		r.Post("/marketplace/items", items.Create)
		r.Post("/marketplace/redeem", redeem.New(logger, s.Accounting).ServeHTTP)

		r.Post("/sessions", submit.New(logger, s.Verification).ServeHTTP)
		r.Get("/sessions", mine.New(logger, s.Verification).ServeHTTP)
		r.Get("/sessions/pending", pending.New(logger, s.Verification).ServeHTTP)
		r.Get("/sessions/{id}", read.New(logger, s.Verification).ServeHTTP)
		r.Put("/sessions/{id}/decision", decide.New(logger, s.Verification).ServeHTTP)

		r.Get("/me/balance", balance.New(logger, s.Accounting).ServeHTTP)
		r.Get("/me/transactions", transactions.New(logger, s.Accounting).ServeHTTP)
		r.Put("/me/wallet", wallet.New(logger, s.Accounting).ServeHTTP)
		r.Get("/me/onchain", onchain.New(logger, s.Accounting, s.Gateway).ServeHTTP)

		r.Get("/settlements", settlements.List)
		r.Get("/settlements/{id}", settlements.Get)
		r.Post("/settlements/{id}/retry", settlements.Retry)
	})
}
