// Package i18n — локализованные сообщения для клиентских ответов.
//
// Каталог закрыт и маленький: ключи соответствуют видам ошибок сервиса
// плюс подтверждение выхода. Язык выбирается по заголовку Accept-Language;
// для неизвестных языков и пустого заголовка используется английский.
// Машиночитаемый код ошибки от языка не зависит.
package i18n

import "golang.org/x/text/language"

// Ключи сообщений.
const (
	KeyPasswordMismatch   = "password_mismatch"
	KeyInvalidEmail       = "invalid_email"
	KeyEmailTaken         = "email_taken"
	KeyInvalidCredentials = "invalid_credentials"
	KeyLoginFailed        = "login_failed"
	KeyInvalidToken       = "invalid_or_expired_token"
	KeyTokenExpired       = "token_expired"
	KeyLogoutSuccess      = "logout_success"
	KeyBadRequest         = "bad_request"
	KeyUnauthorized       = "unauthorized"
	KeyNotFound           = "not_found"
	KeyMethodNotAllowed   = "method_not_allowed"
	KeyTimeout            = "timeout"
	KeyInternal           = "internal_error"
)

// Messages — каталог локализованных сообщений с негоциацией языка.
type Messages struct {
	matcher   language.Matcher
	supported []language.Tag
	catalogs  []map[string]string
}

// New возвращает каталог с английскими и русскими сообщениями.
// Первый язык списка — фолбэк.
func New() *Messages {
	supported := []language.Tag{language.English, language.Russian}

	return &Messages{
		matcher:   language.NewMatcher(supported),
		supported: supported,
		catalogs:  []map[string]string{english, russian},
	}
}

// Message возвращает текст по ключу для языка из Accept-Language.
// Неизвестный ключ возвращается как есть: лучше показать ключ,
// чем пустую строку.
func (m *Messages) Message(acceptLanguage, key string) string {
	_, idx := language.MatchStrings(m.matcher, acceptLanguage)

	if text, ok := m.catalogs[idx][key]; ok {
		return text
	}

	if text, ok := m.catalogs[0][key]; ok {
		return text
	}

	return key
}

var english = map[string]string{
	KeyPasswordMismatch:   "passwords do not match",
	KeyInvalidEmail:       "invalid email address",
	KeyEmailTaken:         "email is already registered",
	KeyInvalidCredentials: "invalid email or password",
	KeyLoginFailed:        "login failed, please try again later",
	KeyInvalidToken:       "invalid or expired refresh token",
	KeyTokenExpired:       "access token expired",
	KeyLogoutSuccess:      "you have been logged out",
	KeyBadRequest:         "invalid request",
	KeyUnauthorized:       "authorization required",
	KeyNotFound:           "resource not found",
	KeyMethodNotAllowed:   "method not allowed",
	KeyTimeout:            "request timed out",
	KeyInternal:           "internal server error",
}

var russian = map[string]string{
	KeyPasswordMismatch:   "пароли не совпадают",
	KeyInvalidEmail:       "некорректный email",
	KeyEmailTaken:         "email уже зарегистрирован",
	KeyInvalidCredentials: "неверный email или пароль",
	KeyLoginFailed:        "не удалось выполнить вход, попробуйте позже",
	KeyInvalidToken:       "недействительный или просроченный refresh-токен",
	KeyTokenExpired:       "access-токен просрочен",
	KeyLogoutSuccess:      "вы вышли из системы",
	KeyBadRequest:         "некорректный запрос",
	KeyUnauthorized:       "требуется авторизация",
	KeyNotFound:           "ресурс не найден",
	KeyMethodNotAllowed:   "метод не поддерживается",
	KeyTimeout:            "истекло время обработки запроса",
	KeyInternal:           "внутренняя ошибка сервера",
}
