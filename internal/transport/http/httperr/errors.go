// httperr стандартизирует ответы об ошибках HTTP-слоя auth-service.
// На вход он принимает ошибку доменного слоя (сентинелы пакета service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - стабильный машиночитаемый code;
//   - локализованное message (каталог internal/i18n, язык из Accept-Language).
//
// Принципы:
//   - ошибки сервиса явно транслируются в статусы:
//   - ErrPasswordMismatch/ErrInvalidEmail -> 400;
//   - ErrEmailTaken -> 409;
//   - ErrInvalidCredentials -> 401 (без различения причины);
//   - ErrInvalidToken -> 401 (схлопнутый отказ refresh);
//   - ErrTokenExpired -> 401 (отдельный code, чтобы клиент знал, что пора в refresh);
//   - ErrLoginFailed -> 500;
//   - context.DeadlineExceeded -> 504, context.Canceled -> 499;
//   - иные ошибки -> 500/internal с единым безопасным сообщением.
//
// Безопасность: для 500 наружу не утекают детали внутренних ошибок;
// подробности должны попадать в логи на уровне middleware и сервиса.
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-auth-service/internal/i18n"
	"github.com/pribylovaa/go-auth-service/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// Локальные ошибки HTTP-слоя (до вызова сервиса).
var (
	// ErrBadRequest — битый JSON или неизвестные поля запроса.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized — отсутствующий или непригодный заголовок Authorization.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRouteNotFound — запрос на незарегистрированный путь.
	ErrRouteNotFound = errors.New("route not found")
	// ErrMethodNotAllowed — известный путь, неподдерживаемый метод.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — локализованное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку доменного слоя в HTTP-статус, машиночитаемый
// code и ключ локализации сообщения.
//
// err == nil — программная ошибка вызова: возвращаем 500/internal, чтобы
// не послать "200 OK" с телом ошибки и не маскировать баг.
func ToHTTP(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", i18n.KeyInternal
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request", i18n.KeyBadRequest
	case errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusBadRequest, "password_mismatch", i18n.KeyPasswordMismatch
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email", i18n.KeyInvalidEmail
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "email_taken", i18n.KeyEmailTaken
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", i18n.KeyInvalidCredentials
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_or_expired_token", i18n.KeyInvalidToken
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired", i18n.KeyTokenExpired
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthenticated", i18n.KeyUnauthorized
	case errors.Is(err, service.ErrLoginFailed):
		return http.StatusInternalServerError, "login_failed", i18n.KeyLoginFailed
	case errors.Is(err, ErrRouteNotFound):
		return http.StatusNotFound, "not_found", i18n.KeyNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed", i18n.KeyMethodNotAllowed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", i18n.KeyTimeout
	case errors.Is(err, context.Canceled):
		// Клиент соединение уже закрыл; сообщение он не прочитает.
		return StatusClientClosedRequest, "canceled", "canceled"
	default:
		return http.StatusInternalServerError, "internal", i18n.KeyInternal
	}
}

// WriteError — хелпер для HTTP-хендлеров: пишет корректный статус и тело,
// локализует message по Accept-Language и добавляет request_id из заголовка.
// msgs == nil допустим: вместо перевода уйдёт ключ сообщения.
func WriteError(w http.ResponseWriter, r *http.Request, msgs *i18n.Messages, err error) {
	status, code, key := ToHTTP(err)

	message := key
	if msgs != nil {
		message = msgs.Message(r.Header.Get("Accept-Language"), key)
	}

	resp := ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: message,
		},
	}

	// Прокидываем request_id, чтобы клиент мог репортить проблемы с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
