// Package redeem реализует HTTP-обработчик обмена токенов на товар маркетплейса.
package redeem

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/request"
	"github.com/helptoken/helptoken/internal/http/response"
	"github.com/helptoken/helptoken/internal/models"
)

// Handler списывает токены в обмен на товар маркетплейса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Redeem(ctx context.Context, id authz.Identity, req models.RedeemRequest) (*models.Transaction, error)
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
// @Summary Обменять токены на товар
// @Description Списывает стоимость товара с баланса и добавляет spend-транзакцию.
// @Tags Ledger
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.RedeemRequest true "Товар"
// @Success 201 {object} response.Response{data=models.Transaction} "Транзакция списания"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 402 {object} response.ErrorResponse "Недостаточно токенов"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Товар не найден или неактивен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /marketplace/redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ledger.redeem"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}

	var req models.RedeemRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	tx, err := h.service.Redeem(r.Context(), id, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("item redeemed", slog.Int64("item_id", req.ItemID), slog.String("amount", tx.Amount.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(tx))
}
