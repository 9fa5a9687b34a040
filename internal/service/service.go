// service содержит бизнес-логику auth-сервиса:
// регистрацию/аутентификацию пользователей, выпуск/ротацию пары токенов
// и учёт refresh-сессий через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Проверка учётных данных устойчива к перечислению аккаунтов: стоимость
//     и форма отказа не зависят от причины (см. credentials.go).
//   - Ошибки возвращаются наверх и маппятся транспортом на HTTP-статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-auth-service/internal/cache"
	"github.com/pribylovaa/go-auth-service/internal/config"
	"github.com/pribylovaa/go-auth-service/internal/security"
	"github.com/pribylovaa/go-auth-service/internal/storage"
)

var (
	// ErrPasswordMismatch — пароль и подтверждение не совпадают.
	// Транспорт: HTTP 400. Проверяется до любых обращений к хранилищу.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidEmail — e-mail имеет некорректный формат.
	// Транспорт: HTTP 400. Возвращается только при регистрации: на входе
	// синтаксис не проверяется, чтобы не отличаться от «пользователь не найден».
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	// Транспорт: HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidCredentials — единый отказ входа: пользователь не найден,
	// пароль неверен или аккаунт деактивирован. Причина снаружи неразличима.
	// Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLoginFailed — обобщённый сбой входа после успешной проверки
	// учётных данных (выпуск токенов/сессии). Детали остаются в логах.
	// Транспорт: HTTP 500.
	ErrLoginFailed = errors.New("login failed")

	// ErrInvalidToken — собирательный отказ по refresh-токену: битая подпись,
	// просрочка, неизвестная или отозванная сессия, проигрыш конкурентной
	// ротации. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrTokenExpired — срок действия access-токена истёк.
	// Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionCollision — исчерпаны попытки выпустить refresh-токен
	// с уникальным хэшем (крайне редкие коллизии UNIQUE token_hash).
	// Транспорт: HTTP 500.
	ErrSessionCollision = errors.New("session token collision")
)

// dummyPassword — фиксированная строка для фиктивной проверки пароля,
// когда пользователь не найден: стоимость bcrypt оплачивается на обеих ветках.
const dummyPassword = "not-a-real-password"

// fallbackDummyHash — валидный bcrypt-хэш на случай, если хэшер не смог
// посчитать dummyHash на старте. Сравнение с ним всегда даёт несовпадение,
// но выполняет полный раунд bcrypt.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	hasher  security.PasswordHasher
	scache  cache.SessionCache // может быть nil, если кэш не сконфигурирован

	// dummyHash вычисляется один раз при создании сервиса тем же хэшером,
	// что и настоящие пароли, чтобы время фиктивной проверки совпадало.
	dummyHash string
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig, hasher security.PasswordHasher) *Service {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		dummy = fallbackDummyHash
	}

	return &Service{
		storage:   storage,
		cfg:       cfg,
		hasher:    hasher,
		dummyHash: dummy,
	}
}

// SetSessionCache устанавливает кэш сессий (опционально).
func (s *Service) SetSessionCache(c cache.SessionCache) {
	s.scache = c
}
