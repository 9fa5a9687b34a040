// handlers содержит REST-хендлеры auth-service.
// Здесь выполняется только маппинг запросов/ответов и ошибок доменного слоя
// в HTTP; вся валидация и бизнес-логика находятся в пакете service.
package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/pribylovaa/go-auth-service/internal/i18n"
	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/pribylovaa/go-auth-service/internal/service"
)

// Handlers агрегирует зависимости REST-слоя.
type Handlers struct {
	svc  *service.Service
	msgs *i18n.Messages
}

func New(svc *service.Service, msgs *i18n.Messages) *Handlers {
	return &Handlers{svc: svc, msgs: msgs}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через httperr.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// clientMeta собирает описательные поля сессии из запроса.
// IP берётся из RemoteAddr; за обратным прокси сюда попадёт адрес прокси —
// терпимо, поле описательное и на авторизацию не влияет.
func clientMeta(r *http.Request) models.ClientMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}

	return models.ClientMeta{
		UserAgent: r.UserAgent(),
		IP:        ip,
	}
}
