// Package decide реализует HTTP-обработчик решения проверяющего по сессии.
package decide

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
	"github.com/helptoken/helptoken/internal/lib/sl"
	"github.com/helptoken/helptoken/internal/models"
)

// Handler применяет решение проверяющего к сессии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Decide(ctx context.Context, id authz.Identity, sessionID int64, approved bool, notes string) (*models.VolunteerSession, error)
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
// @Summary Принять решение по сессии
// @Description Одобряет или отклоняет сессию. Одобрение начисляет токены и ставит запись расчёта в очередь.
// @Tags Sessions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID сессии"
// @Param request body models.DecisionRequest true "Решение"
// @Success 200 {object} response.Response{data=models.VolunteerSession} "Решение записано"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} response.ErrorResponse "Решение по сессии уже принято"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /sessions/{id}/decision [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.decide"

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
		log.Info("failed to decode id from url", sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	var req models.DecisionRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	sess, err := h.service.Decide(r.Context(), id, sessionID, *req.Approved, req.Notes)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("session decided", slog.Int64("session_id", sess.ID), slog.String("status", string(sess.Status)))
	render.JSON(w, r, response.OKWithData(sess))
}
