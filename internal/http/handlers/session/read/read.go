// Package read реализует HTTP-обработчик чтения сессии.
//
// Волонтёр видит только свои сессии, чужая для него не существует.
package read

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

// Handler отдаёт сессию вместе с состоянием её расчёта.
type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Get(ctx context.Context, id authz.Identity, sessionID int64) (*models.SessionDetails, error)
}

// New создает Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить сессию
// @Description Возвращает сессию и, если есть, её запись расчёта.
// @Tags Sessions
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID сессии"
// @Success 200 {object} response.Response{data=models.SessionDetails} "Сессия"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /sessions/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}

	sessionID, err := request.IDParam(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	details, err := h.service.Get(r.Context(), id, sessionID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("session read", slog.Int64("session_id", sessionID))
	render.JSON(w, r, response.OKWithData(details))
}
