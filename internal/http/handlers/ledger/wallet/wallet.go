// Package wallet реализует HTTP-обработчик привязки адреса кошелька.
package wallet

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/request"
	"github.com/helptoken/helptoken/internal/http/response"
	"github.com/helptoken/helptoken/internal/models"
)

// Handler привязывает адрес кошелька, на который зеркалируются начисления.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	SetWallet(ctx context.Context, id authz.Identity, address string) error
}

// New создает Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Привязать кошелёк
// @Description Сохраняет адрес, на который зеркалируются начисления во внешнем реестре.
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.WalletRequest true "Адрес кошелька"
// @Success 200 {object} response.Response "Адрес привязан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /me/wallet [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ledger.wallet"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}

	var req models.WalletRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	if err := h.service.SetWallet(r.Context(), id, req.WalletAddress); err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("wallet linked")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"wallet_address": strings.ToLower(req.WalletAddress),
	}))
}
