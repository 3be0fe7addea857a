// Package opportunity содержит обработчики каталога волонтёрских возможностей.
package opportunity

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/request"
	"github.com/helptoken/helptoken/internal/http/response"
	"github.com/helptoken/helptoken/internal/models"
)

type Service interface {
	ListOpportunities(ctx context.Context, id authz.Identity, includeInactive bool) ([]*models.Opportunity, error)
	GetOpportunity(ctx context.Context, id authz.Identity, oppID int64) (*models.Opportunity, error)
	CreateOpportunity(ctx context.Context, id authz.Identity, req models.OpportunityRequest) (*models.Opportunity, error)
	UpdateOpportunity(ctx context.Context, id authz.Identity, oppID int64, req models.OpportunityRequest) (*models.Opportunity, error)
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

func (h *Handlers) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List отдаёт активные возможности; ?all=true включает неактивные для администратора.
// @Summary Список возможностей
// @Description Активные возможности. all=true включает неактивные (только администратор).
// @Tags Catalog
// @Produce  json
// @Security BearerAuth
// @Param all query bool false "Включить неактивные"
// @Success 200 {object} response.Response{data=[]models.Opportunity} "Возможности"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /opportunities [get]
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.opportunity.List")

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	list, err := h.service.ListOpportunities(r.Context(), id, all)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Get godoc
// @Summary Получить возможность
// @Description Возвращает возможность по ID.
// @Tags Catalog
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID возможности"
// @Success 200 {object} response.Response{data=models.Opportunity} "Возможность"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 404 {object} response.ErrorResponse "Возможность не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /opportunities/{id} [get]
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.opportunity.Get")

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	oppID, err := request.IDParam(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	o, err := h.service.GetOpportunity(r.Context(), id, oppID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(o))
}

// Create godoc
// @Summary Создать возможность
// @Description Создаёт возможность со ставкой в диапазоне [1, 5].
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.OpportunityRequest true "Возможность"
// @Success 201 {object} response.Response{data=models.Opportunity} "Создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /opportunities [post]
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.opportunity.Create")

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	var req models.OpportunityRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	o, err := h.service.CreateOpportunity(r.Context(), id, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("opportunity created", slog.Int64("opportunity_id", o.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(o))
}

// Update меняет возможность. Уже поданные сессии сохраняют зафиксированную ставку.
// @Summary Изменить возможность
// @Description Меняет возможность. Поданные сессии сохраняют свою ставку.
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID возможности"
// @Param request body models.OpportunityRequest true "Возможность"
// @Success 200 {object} response.Response{data=models.Opportunity} "Изменена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет токена или он недействителен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Возможность не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /opportunities/{id} [put]
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.opportunity.Update")

	id, ok := request.Identity(w, r, log)
	if !ok {
		return
	}
	oppID, err := request.IDParam(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	var req models.OpportunityRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	o, err := h.service.UpdateOpportunity(r.Context(), id, oppID, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("opportunity updated", slog.Int64("opportunity_id", o.ID))
	render.JSON(w, r, response.OKWithData(o))
}
