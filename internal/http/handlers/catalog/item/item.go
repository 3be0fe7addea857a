// Package item содержит обработчики товаров маркетплейса.
package item

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

type Service interface {
	ListItems(ctx context.Context) ([]*models.MarketplaceItem, error)
	CreateItem(ctx context.Context, id authz.Identity, req models.ItemRequest) (*models.MarketplaceItem, error)
}

type Handlers struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handlers с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handlers {
	return &Handlers{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// List godoc
// @Summary Товары маркетплейса
// @Description Возвращает активные товары.
// @Tags Marketplace
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.MarketplaceItem} "Товары"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /marketplace/items [get]
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.item.List"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	items, err := h.service.ListItems(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(items))
}

// Create godoc
// @Summary Добавить товар
// @Description Создаёт товар с положительной ценой.
// @Tags Marketplace
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ItemRequest true "Товар"
// @Success 201 {object} response.Response{data=models.MarketplaceItem} "Товар создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /marketplace/items [post]
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.item.Create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	var req models.ItemRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	it, err := h.service.CreateItem(r.Context(), id, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("item created", slog.Int64("item_id", it.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(it))
}
