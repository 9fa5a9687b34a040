// Package reaper — плановая очистка мёртвых refresh-сессий.
//
// Очистка носит исключительно гигиенический характер: каждый шаг
// аутентификации сам проверяет is_active и expires_at, поэтому запаздывание
// или сбой реапера не влияет на корректность, только на размер таблицы.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-auth-service/internal/storage"
)

// Reaper периодически удаляет просроченные и давно отозванные сессии.
type Reaper struct {
	storage   storage.SessionStorage
	log       *slog.Logger
	interval  time.Duration
	retention time.Duration
}

// New создаёт Reaper. Retention задаёт, сколько держать запись после
// истечения срока или отзыва, прежде чем удалить её физически.
func New(storage storage.SessionStorage, log *slog.Logger, interval, retention time.Duration) *Reaper {
	return &Reaper{
		storage:   storage,
		log:       log,
		interval:  interval,
		retention: retention,
	}
}

// Run запускает цикл очистки и блокируется до отмены контекста.
// Первый проход выполняется сразу, дальше — по тикеру. Ошибки логируются
// и не прерывают цикл: следующий тик повторит попытку.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	if _, err := r.RunOnce(ctx); err != nil {
		r.log.Error("session_reaper_failed", slog.String("err", err.Error()))
	}

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.log.Error("session_reaper_failed", slog.String("err", err.Error()))
			}
		}
	}
}

// RunOnce выполняет один проход очистки и возвращает число удалённых строк.
// Проход идемпотентен: повторный запуск на том же состоянии удаляет 0 строк.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	const op = "reaper.RunOnce"

	cutoff := time.Now().UTC().Add(-r.retention)

	deleted, err := r.storage.DeleteDeadSessions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if deleted > 0 {
		r.log.Info("dead_sessions_deleted", slog.Int64("count", deleted))
	}

	return deleted, nil
}
