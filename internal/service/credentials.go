package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/pribylovaa/go-auth-service/internal/storage"
)

// validateCredentials проверяет пару email+пароль, не раскрывая причину отказа
// ни формой ошибки, ни временем ответа.
//
// Правила:
//   - поиск пользователя выполняется всегда, без предварительной валидации
//     синтаксиса email (ранний выход был бы заметен по времени);
//   - bcrypt-сравнение выполняется ровно один раз за вызов: с хэшем
//     пользователя либо, если пользователь не найден, с dummyHash;
//   - успех требует одновременно: пользователь существует, пароль совпал,
//     аккаунт активен; любой отказ — единый ErrInvalidCredentials;
//   - каждый выход, включая успешный, выравнивается по времени до
//     cfg.LoginMinDuration. time.Sleep намеренно не прерывается контекстом:
//     отменой запроса нельзя измерить быструю ветку.
func (s *Service) validateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	const op = "service.credentials.validateCredentials"

	started := time.Now()
	defer func() {
		if left := s.cfg.LoginMinDuration - time.Since(started); left > 0 {
			time.Sleep(left)
		}
	}()

	normEmail := strings.ToLower(strings.TrimSpace(email))

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Фиктивная проверка: ветка «нет пользователя» стоит столько же,
			// сколько ветка «пароль неверен».
			s.hasher.Verify(s.dummyHash, password)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return user, nil
}
