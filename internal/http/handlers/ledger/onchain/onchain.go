// Package onchain показывает агрегаты внешнего реестра по привязанному кошельку пользователя.
// Значения читаются из реестра напрямую и не влияют на внутренний баланс.
package onchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/request"
	"github.com/helptoken/helptoken/internal/http/response"
	"github.com/helptoken/helptoken/internal/models"
)

type Handler struct {
	log     *slog.Logger
	users   Users
	gateway Gateway
}

// Users даёт доступ к профилю с адресом кошелька.
type Users interface {
	Balance(ctx context.Context, id authz.Identity, uid string) (*models.User, error)
}

// Gateway — чтение агрегатов из внешнего реестра.
type Gateway interface {
	VolunteerStats(ctx context.Context, address string) (*models.VolunteerStats, error)
	BalanceOf(ctx context.Context, address string) (string, error)
}

// New создает Handler, читающий профиль из users и агрегаты из gateway.
func New(log *slog.Logger, users Users, gateway Gateway) *Handler {
	return &Handler{
		log:     log,
		users:   users,
		gateway: gateway,
	}
}

// ServeHTTP godoc
// @Summary Агрегаты во внешнем реестре
// @Description Возвращает минуты, сессии и баланс по привязанному кошельку.
// @Tags Ledger
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.VolunteerStats} "Агрегаты"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 409 {object} response.ErrorResponse "Кошелёк не привязан"
// @Failure 502 {object} response.ErrorResponse "Внешний реестр недоступен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /me/onchain [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ledger.onchain"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}

	user, err := h.users.Balance(r.Context(), id, r.URL.Query().Get("user_uid"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	if user.WalletAddress == "" {
		response.Fail(w, r, log, fmt.Errorf("%w: wallet address is not linked", models.ErrConflict))
		return
	}

	stats, err := h.gateway.VolunteerStats(r.Context(), user.WalletAddress)
	if err != nil {
		response.Fail(w, r, log, gatewayErr(err))
		return
	}
	bal, err := h.gateway.BalanceOf(r.Context(), user.WalletAddress)
	if err != nil {
		response.Fail(w, r, log, gatewayErr(err))
		return
	}
	stats.Balance = bal

	render.JSON(w, r, response.OKWithData(stats))
}

// gatewayErr помечает любой сбой реестра как ошибку расчёта, чтобы клиент получил 502.
func gatewayErr(err error) error {
	if errors.Is(err, models.ErrSettlementFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrSettlementFailure, err)
}
