// Package mine реализует HTTP-обработчик списка собственных сессий волонтёра.
package mine

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

// Handler отдаёт сессии текущего пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ListMine(ctx context.Context, id authz.Identity, limit, offset int) ([]*models.VolunteerSession, error)
}

// New создает Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Мои сессии
// @Description Возвращает сессии текущего пользователя, новые первыми.
// @Tags Sessions
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=[]models.VolunteerSession} "Список сессий"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /sessions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.mine"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	limit, offset := request.Page(r)

	list, err := h.service.ListMine(r.Context(), id, limit, offset)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}
