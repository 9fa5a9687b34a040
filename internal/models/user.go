package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleUser — роль по умолчанию для новых пользователей.
const RoleUser = "user"

// User — модель пользователя в системе.
//
// PasswordHash — bcrypt-хэш пароля; за пределы сервисного слоя
// не выходит (наружу отдаётся SafeUser).
// IsActive=false означает деактивированный аккаунт: вход для него
// запрещён, но наружу причина отказа не раскрывается.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeUser — публичное представление пользователя без чувствительных полей.
type SafeUser struct {
	ID          uuid.UUID
	Email       string
	Role        string
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

// Safe возвращает представление пользователя для выдачи наружу.
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
