// Package request содержит общие шаги разбора HTTP-запроса: идентичность из контекста,
// числовые параметры пути, пагинацию и декодирование JSON с валидацией.
package request

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/response"
	"github.com/helptoken/helptoken/internal/lib/sl"
	"github.com/helptoken/helptoken/internal/models"
)

// Identity достаёт идентичность, положенную JWTMiddleware. Если её нет, отвечает 401.
func Identity(w http.ResponseWriter, r *http.Request, log *slog.Logger) (authz.Identity, bool) {
	id, ok := authz.FromContext(r.Context())
	if !ok || id.UserUID == "" {
		log.Error("identity not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return authz.Identity{}, false
	}
	return id, true
}

// IDParam разбирает положительный числовой параметр пути.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s in url: %w", name, models.ErrValidation)
	}
	return id, nil
}

// Page читает limit и offset из query. Некорректные значения заменяются нулями,
// окончательные границы выставляет сервис.
func Page(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		limit = 0
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// DecodeJSON декодирует тело в dst и проверяет его теги validate. При ошибке отвечает
// 400 или 422 и возвращает false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return false
		}
		log.Error("validator failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return false
	}
	return true
}
