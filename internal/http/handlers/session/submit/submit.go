// Package submit реализует HTTP-обработчик подачи волонтёрской сессии.
//
// Ставка вознаграждения фиксируется в момент подачи, tokens_earned = hours × rate.
package submit

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

// Handler принимает заявку волонтёра о выполненной работе.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает подачу сессии.
type Service interface {
	Submit(ctx context.Context, id authz.Identity, req models.SubmitSessionRequest) (*models.VolunteerSession, error)
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
// @Summary Подать волонтёрскую сессию
// @Description Создаёт сессию в статусе pending_verification. hours в диапазоне [0.5, 12].
// @Tags Sessions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.SubmitSessionRequest true "Данные сессии"
// @Success 201 {object} response.Response{data=models.VolunteerSession} "Сессия создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Возможность не найдена или неактивна"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /sessions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.submit"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}

	var req models.SubmitSessionRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	sess, err := h.service.Submit(r.Context(), id, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("session submitted", slog.Int64("session_id", sess.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(sess))
}
