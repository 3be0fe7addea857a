// Package middlewarectx содержит HTTP middleware идентификации и ограничения частоты запросов.
//
// JWTMiddleware проверяет токен в заголовке Authorization и кладёт в контекст
// authz.Identity. Дальше обработчики и сервисы работают только с ней.
package middlewarectx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/response"
	"github.com/helptoken/helptoken/internal/lib/jwt"
	"github.com/helptoken/helptoken/internal/lib/sl"
)

// TokenParser проверяет токен и возвращает его claims.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Subject токена должен быть UUID, роль одной из известных. Иначе запрос
// отклоняется с 401 Unauthorized.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			if _, err := uuid.Parse(claims.UserUID()); err != nil {
				log.Info("token subject is not a uuid", slog.String("sub", claims.UserUID()))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid token subject"))
				return
			}
			role, ok := authz.ParseRole(claims.Role)
			if !ok {
				log.Info("unknown role in token", slog.String("role", claims.Role))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unknown role"))
				return
			}

			ctx := authz.WithIdentity(r.Context(), authz.Identity{
				UserUID: strings.ToLower(claims.UserUID()),
				Role:    role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
