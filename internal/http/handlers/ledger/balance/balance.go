// Package balance реализует HTTP-обработчик баланса пользователя.
package balance

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

// Handler отдаёт баланс и агрегаты пользователя. Параметр user_uid доступен только администратору.
type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Balance(ctx context.Context, id authz.Identity, uid string) (*models.User, error)
}

// New создает Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Баланс
// @Description Возвращает баланс, часы и число проектов. user_uid доступен только администратору.
// @Tags Ledger
// @Produce  json
// @Security BearerAuth
// @Param user_uid query string false "UID пользователя"
// @Success 200 {object} response.Response{data=models.User} "Профиль с балансом"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /me/balance [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ledger.balance"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}

	user, err := h.service.Balance(r.Context(), id, r.URL.Query().Get("user_uid"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(user))
}
