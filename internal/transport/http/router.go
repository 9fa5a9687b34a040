// transport/http собирает REST-поверхность auth-service: роутер chi,
// цепочку middleware и регистрацию маршрутов. Маппинг данных и ошибок
// доменного слоя в HTTP живёт в подпакетах handlers и httperr; вся
// валидация и бизнес-логика — в пакете service.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-auth-service/internal/i18n"
	"github.com/pribylovaa/go-auth-service/internal/service"
	"github.com/pribylovaa/go-auth-service/internal/transport/http/handlers"
	"github.com/pribylovaa/go-auth-service/internal/transport/http/httperr"
	"github.com/pribylovaa/go-auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, msgs *i18n.Messages, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(msgs),        // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Metrics(),            // считаем все запросы, включая 404/405
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// 404/405 отвечают тем же конвертом, что и хендлеры.
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperr.WriteError(w, r, msgs, httperr.ErrRouteNotFound)
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperr.WriteError(w, r, msgs, httperr.ErrMethodNotAllowed)
	})

	// Зависимости хендлеров.
	h := handlers.New(svc, msgs)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc, msgs)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc, msgs)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service, msgs *i18n.Messages) {
	// Открытые операции.
	r.Post("/auth/register", h.RegisterUser)
	r.Post("/auth/login", h.LoginUser)
	r.Post("/auth/refresh", h.RefreshTokens)

	// Операции под bearer-токеном.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthBearer(svc, msgs))

		r.Post("/auth/logout", h.LogoutUser)
		r.Get("/auth/sessions", h.ActiveSessions)
		r.Get("/auth/sessions/stats", h.SessionStats)
	})
}
