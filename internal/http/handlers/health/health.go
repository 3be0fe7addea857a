// Package health реализует проверку готовности процесса и его зависимостей.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/render"

	"github.com/helptoken/helptoken/internal/http/response"
	"github.com/helptoken/helptoken/internal/lib/sl"
)

// Pinger — зависимость, доступность которой отражается в /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log     *slog.Logger
	checks  map[string]Pinger
	timeout time.Duration
}

// New создаёт обработчик; checks может быть пустым, тогда проверяется только сам процесс.
func New(log *slog.Logger, checks map[string]Pinger) *Handler {
	return &Handler{
		log:     log,
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

// ServeHTTP отвечает 200, если все зависимости доступны, и 503 со статусом каждой из них иначе.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.log.Warn("health check failed", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			deps[name] = "unavailable"
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	if status != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status":       status,
		"dependencies": deps,
	}))
}
