package models

import (
	"time"

	"github.com/google/uuid"
)

// Session — серверная запись о refresh-сессии пользователя.
//
// Описание:
//   - TokenHash — sha256-хэш refresh-токена в base64 (RawURL); сам токен
//     в хранилище не попадает;
//   - UserAgent/IP — метаданные клиента на момент входа;
//   - IsActive — false после logout/отзыва; строка живёт до плановой очистки;
//   - ExpiresAt — момент истечения сессии (UTC).
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	UserAgent string
	IP        string
	IsActive  bool
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientMeta — метаданные клиента, сопровождающие вход и обновление сессии.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// AgentStat — количество сессий пользователя в разрезе User-Agent.
type AgentStat struct {
	UserAgent string
	Count     int64
}
