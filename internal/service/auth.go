package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/pribylovaa/go-auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-auth-service/internal/pkg/redact"
	"github.com/pribylovaa/go-auth-service/internal/storage"
)

// RegisterUser регистрирует нового пользователя и сразу логинит его:
// вместе с публичным представлением возвращается первая пара токенов,
// а refresh-сессия регистрируется в хранилище. Совпадение пароля
// с подтверждением проверяется до любых обращений к хранилищу.
//
// Сбой выпуска токенов после создания пользователя схлопывается
// в ErrLoginFailed: запись уже существует, обычный вход её доведёт.
func (s *Service) RegisterUser(ctx context.Context, email, password, confirmPassword string, meta models.ClientMeta) (*models.SafeUser, *models.TokenPair, error) {
	const op = "service.auth.RegisterUser"

	if password != confirmPassword {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        normEmail,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.startSession(ctx, user, meta)
	if err != nil {
		log.From(ctx).Error("register_session_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrLoginFailed)
	}

	log.From(ctx).Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	safe := user.Safe()

	return &safe, pair, nil
}

// LoginUser выполняет вход по email+пароль: проверка учётных данных,
// выпуск пары токенов и регистрация refresh-сессии.
//
// Контракт ошибок — двухфазный:
//   - отказ проверки учётных данных -> ErrInvalidCredentials (401), причина
//     снаружи неразличима;
//   - любой сбой ПОСЛЕ успешной проверки (подпись токенов, сохранение
//     сессии) -> обобщённый ErrLoginFailed (500), детали только в логах.
//
// Метка последнего входа обновляется best-effort и на исход не влияет.
func (s *Service) LoginUser(ctx context.Context, email, password string, meta models.ClientMeta) (*models.SafeUser, *models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	lg := log.From(ctx)

	user, err := s.validateCredentials(ctx, email, password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.startSession(ctx, user, meta)
	if err != nil {
		lg.Error("login_post_validation_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrLoginFailed)
	}

	now := time.Now().UTC()
	if err := s.storage.UpdateLastLogin(ctx, user.ID, now); err != nil {
		lg.Warn("update_last_login_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
	} else {
		user.LastLoginAt = &now
	}

	lg.Info("user_logged_in",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	safe := user.Safe()

	return &safe, pair, nil
}

// RefreshTokens обновляет пару токенов по refresh-токену с ротацией сессии.
// Возвращается только новая пара, без данных пользователя.
//
// Все отказы — битая подпись, просрочка, неизвестная или отозванная сессия,
// проигрыш конкурентной ротации — схлопываются в ErrInvalidToken.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.RefreshTokens"

	identity, err := s.parseRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	oldHash := hashToken(refreshToken)

	session, err := s.findActiveSession(ctx, oldHash, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.rotateSession(ctx, identity, session, oldHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// LogoutUser завершает сессии пользователя: с токеном — одну, без токена —
// все. Операция идемпотентна и с точки зрения клиента всегда успешна:
// отсутствующий или чужой токен — no-op. Наверх поднимаются только
// инфраструктурные ошибки.
func (s *Service) LogoutUser(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	const op = "service.auth.LogoutUser"

	lg := log.From(ctx)
	now := time.Now().UTC()

	if refreshToken == "" {
		count, err := s.storage.RevokeAllSessions(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		lg.Info("sessions_revoked_all",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			slog.Int64("count", count),
		)

		return nil
	}

	hash := hashToken(refreshToken)

	if err := s.storage.RevokeSession(ctx, userID, hash, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.cacheInvalidate(ctx, hash)

	lg.Info("session_revoked",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	return nil
}

// ValidateAccessToken проверяет access-токен и возвращает identity из claims.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (*Identity, error) {
	const op = "service.auth.ValidateAccessToken"

	identity, err := s.parseAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return identity, nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}
