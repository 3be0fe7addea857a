// Package pending реализует HTTP-обработчик очереди сессий на проверку.
package pending

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

// Handler отдаёт очередь сессий на проверку, старые первыми.
type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ListPending(ctx context.Context, id authz.Identity, limit, offset int) ([]*models.VolunteerSession, error)
}

// New создает Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Очередь на проверку
// @Description Возвращает сессии в статусе pending_verification, старые первыми.
// @Tags Sessions
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=[]models.VolunteerSession} "Список сессий"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /sessions/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.pending"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	limit, offset := request.Page(r)

	list, err := h.service.ListPending(r.Context(), id, limit, offset)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("pending sessions listed", slog.Int("count", len(list)))
	render.JSON(w, r, response.OKWithData(list))
}
