// Package transactions реализует HTTP-обработчик журнала транзакций пользователя.
package transactions

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

// Handler отдаёт журнал транзакций, новые первыми.
type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	History(ctx context.Context, id authz.Identity, uid string, limit, offset int) ([]*models.Transaction, error)
}

// New создает Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Журнал транзакций
// @Description Возвращает earn и spend транзакции, новые первыми.
// @Tags Ledger
// @Produce  json
// @Security BearerAuth
// @Param user_uid query string false "UID пользователя"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=[]models.Transaction} "Транзакции"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /me/transactions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ledger.transactions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	limit, offset := request.Page(r)

	list, err := h.service.History(r.Context(), id, r.URL.Query().Get("user_uid"), limit, offset)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("transactions listed", slog.Int("count", len(list)))
	render.JSON(w, r, response.OKWithData(list))
}
