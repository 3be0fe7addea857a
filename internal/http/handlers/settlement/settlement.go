// Package settlement содержит операторские обработчики записей расчёта с внешним реестром.
package settlement

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/request"
	"github.com/helptoken/helptoken/internal/http/response"
	"github.com/helptoken/helptoken/internal/models"
)

type Service interface {
	List(ctx context.Context, id authz.Identity, status models.SettlementStatus, limit, offset int) ([]*models.SettlementRecord, error)
	Get(ctx context.Context, id authz.Identity, settlementID int64) (*models.SettlementRecord, error)
	Retry(ctx context.Context, id authz.Identity, settlementID int64) (*models.SettlementRecord, error)
}

type Handlers struct {
	log     *slog.Logger
	service Service
}

// New создает Handlers с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handlers {
	return &Handlers{
		log:     log,
		service: service,
	}
}

func (h *Handlers) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List фильтрует по ?status=pending|confirmed|failed.
// @Summary Записи расчёта
// @Description Записи расчёта с внешним реестром, опционально по статусу.
// @Tags Settlements
// @Produce  json
// @Security BearerAuth
// @Param status query string false "pending, confirmed или failed"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=[]models.SettlementRecord} "Записи"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /settlements [get]
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.settlement.List")

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	limit, offset := request.Page(r)
	status := models.SettlementStatus(r.URL.Query().Get("status"))

	records, err := h.service.List(r.Context(), id, status, limit, offset)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(records))
}

// Get godoc
// @Summary Получить запись расчёта
// @Description Возвращает запись расчёта по ID.
// @Tags Settlements
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID записи"
// @Success 200 {object} response.Response{data=models.SettlementRecord} "Запись"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /settlements/{id} [get]
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.settlement.Get")

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	settlementID, err := request.IDParam(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	rec, err := h.service.Get(r.Context(), id, settlementID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(rec))
}

// Retry возвращает failed-запись в очередь.
// @Summary Повторить расчёт
// @Description Возвращает failed-запись в pending со сброшенным счётчиком попыток.
// @Tags Settlements
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID записи"
// @Success 202 {object} response.Response{data=models.SettlementRecord} "Запись снова в очереди"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 409 {object} response.ErrorResponse "Запись не в статусе failed"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /settlements/{id}/retry [post]
func (h *Handlers) Retry(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.settlement.Retry")

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	settlementID, err := request.IDParam(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	rec, err := h.service.Retry(r.Context(), id, settlementID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("settlement queued for retry", slog.Int64("settlement_id", rec.ID))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response.OKWithData(rec))
}
