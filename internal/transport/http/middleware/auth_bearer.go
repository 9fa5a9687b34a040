package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-auth-service/internal/i18n"
	"github.com/pribylovaa/go-auth-service/internal/service"
	"github.com/pribylovaa/go-auth-service/internal/transport/http/httperr"
)

type identityKey struct{}

// TokenValidator проверяет access-токен и возвращает identity из claims.
// Реализуется доменным сервисом.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (*service.Identity, error)
}

// AuthBearer защищает поддерево маршрутов: требует заголовок
// "Authorization: Bearer <token>", проверяет access-токен и кладёт identity
// в контекст запроса. Любой отказ — единый 401-ответ; просроченный токен
// получает отдельный code, чтобы клиент ушёл в refresh.
func AuthBearer(v TokenValidator, msgs *i18n.Messages) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				httperr.WriteError(w, r, msgs, httperr.ErrUnauthorized)
				return
			}

			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				httperr.WriteError(w, r, msgs, httperr.ErrUnauthorized)
				return
			}

			identity, err := v.ValidateAccessToken(r.Context(), token)
			if err != nil {
				httperr.WriteError(w, r, msgs, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext возвращает identity аутентифицированного запроса.
func IdentityFromContext(ctx context.Context) (*service.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*service.Identity)
	return identity, ok
}
