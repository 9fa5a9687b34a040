package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-auth-service/internal/cache"
	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/pribylovaa/go-auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-auth-service/internal/storage"
)

// maxSessionAttempts ограничивает перевыпуск пары при коллизии
// хэша refresh-токена (UNIQUE token_hash).
const maxSessionAttempts = 5

// hashToken возвращает хранимое представление refresh-токена:
// sha256 + base64 (RawURL). Сам токен в БД и кэш не попадает.
func hashToken(plain string) string {
	hashBytes := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(hashBytes[:])
}

// startSession выпускает пару токенов и регистрирует refresh-сессию.
// При коллизии хэша пара перевыпускается целиком: jti в refresh-claims
// гарантирует новый хэш на каждой попытке.
func (s *Service) startSession(ctx context.Context, user *models.User, meta models.ClientMeta) (*models.TokenPair, error) {
	const op = "service.sessions.startSession"

	lg := log.From(ctx)

	for attempt := 0; attempt < maxSessionAttempts; attempt++ {
		now := time.Now().UTC()

		pair, err := s.issueTokenPair(ctx, user, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		session := &models.Session{
			ID:        uuid.New(),
			UserID:    user.ID,
			TokenHash: hashToken(pair.RefreshToken),
			UserAgent: meta.UserAgent,
			IP:        meta.IP,
			IsActive:  true,
			ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.storage.SaveSession(ctx, session); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — перевыпускаем пару и пробуем снова.
				continue
			}

			lg.Error("save_session_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.cachePut(ctx, session)

		return pair, nil
	}

	lg.Error("session_collision_exceeded", slog.String("op", op))

	return nil, fmt.Errorf("%s: %w", op, ErrSessionCollision)
}

// findActiveSession ищет живую сессию по хэшу refresh-токена и владельцу.
// Сначала кэш (если включён), затем БД. Устаревший кэш безопасен:
// решающая проверка всё равно происходит в условной ротации.
func (s *Service) findActiveSession(ctx context.Context, tokenHash string, userID uuid.UUID) (*models.Session, error) {
	const op = "service.sessions.findActiveSession"

	now := time.Now().UTC()

	if s.scache != nil {
		cached, err := s.scache.Session(ctx, tokenHash)
		switch {
		case err == nil:
			if cached.UserID == userID && cached.IsActive && cached.ExpiresAt.After(now) {
				return cached, nil
			}
		case !errors.Is(err, cache.ErrCacheMiss):
			log.From(ctx).Warn("session_cache_lookup_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	session, err := s.storage.ActiveSessionByToken(ctx, tokenHash, userID, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

// rotateSession перевыпускает пару и атомарно заменяет хэш в сессии.
// Условная ротация в хранилище — единственный арбитр конкурентных refresh
// одного токена: проигравший получает ErrInvalidToken.
func (s *Service) rotateSession(ctx context.Context, identity *Identity, session *models.Session, oldHash string) (*models.TokenPair, error) {
	const op = "service.sessions.rotateSession"

	lg := log.From(ctx)

	user := &models.User{
		ID:    identity.UserID,
		Email: identity.Email,
		Role:  identity.Role,
	}

	for attempt := 0; attempt < maxSessionAttempts; attempt++ {
		now := time.Now().UTC()

		pair, err := s.issueTokenPair(ctx, user, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		newHash := hashToken(pair.RefreshToken)
		expiresAt := now.Add(s.cfg.RefreshTokenTTL)

		err = s.storage.RotateSession(ctx, session.ID, oldHash, newHash, expiresAt, now)
		if err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Новый хэш занят другой сессией — перевыпускаем пару.
				continue
			}
			if errors.Is(err, storage.ErrNotFound) {
				// Сессию успели ротировать или отозвать: для клиента это
				// тот же недействительный токен.
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			lg.Error("rotate_session_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.cacheInvalidate(ctx, oldHash)

		rotated := *session
		rotated.TokenHash = newHash
		rotated.ExpiresAt = expiresAt
		rotated.UpdatedAt = now
		s.cachePut(ctx, &rotated)

		return pair, nil
	}

	lg.Error("session_collision_exceeded", slog.String("op", op))

	return nil, fmt.Errorf("%s: %w", op, ErrSessionCollision)
}

// ActiveSessions возвращает активные сессии пользователя, новые первыми.
func (s *Service) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	const op = "service.sessions.ActiveSessions"

	sessions, err := s.storage.ActiveSessionsByUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

// SessionStatsByAgent — распределение активных сессий пользователя по User-Agent.
func (s *Service) SessionStatsByAgent(ctx context.Context, userID uuid.UUID) ([]models.AgentStat, error) {
	const op = "service.sessions.SessionStatsByAgent"

	stats, err := s.storage.CountSessionsByUserAgent(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

// cachePut/cacheInvalidate — best-effort: ошибки кэша логируются и не влияют
// на результат операции.
func (s *Service) cachePut(ctx context.Context, session *models.Session) {
	if s.scache == nil {
		return
	}

	if err := s.scache.Put(ctx, session); err != nil {
		log.From(ctx).Warn("session_cache_put_failed", slog.String("err", err.Error()))
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, tokenHash string) {
	if s.scache == nil {
		return
	}

	if err := s.scache.Invalidate(ctx, tokenHash); err != nil {
		log.From(ctx).Warn("session_cache_invalidate_failed", slog.String("err", err.Error()))
	}
}
