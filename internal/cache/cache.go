// Package cache — опциональный Redis-кэш refresh-сессий.
//
// Кэш ускоряет горячий путь refresh (поиск сессии по хэшу токена), но не
// участвует в принятии решений об отзыве: условная ротация в Postgres
// остаётся единственным источником истины. Устаревшая запись в кэше стоит
// максимум лишнего похода в БД и никогда не оживляет мёртвую сессию.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss — записи нет в кэше.
var ErrCacheMiss = errors.New("cache miss")

// SessionCache — минимальный контракт кэша сессий.
type SessionCache interface {
	// Session возвращает сессию по хэшу refresh-токена.
	// Отсутствие записи — ErrCacheMiss.
	Session(ctx context.Context, tokenHash string) (*models.Session, error)
	// Put сохраняет сессию с TTL до её ExpiresAt.
	Put(ctx context.Context, session *models.Session) error
	// Invalidate удаляет запись по хэшу.
	Invalidate(ctx context.Context, tokenHash string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:sess:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (SessionCache, error) {
	if prefix == "" {
		prefix = "auth:sess:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(hash string) string { return c.prefix + hash }

// Храним как Redis Hash с полями: id, uid, ua, ip, act (0/1), exp/crt/upd (unix).
func (c *redisCache) Session(ctx context.Context, tokenHash string) (*models.Session, error) {
	m, err := c.rdb.HGetAll(ctx, c.key(tokenHash)).Result()
	if err != nil {
		return nil, err
	}

	if len(m) == 0 {
		return nil, ErrCacheMiss
	}

	id, err := uuid.Parse(m["id"])
	if err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(m["uid"])
	if err != nil {
		return nil, err
	}

	expUnix, err := strconv.ParseInt(m["exp"], 10, 64)
	if err != nil {
		return nil, err
	}

	crtUnix, err := strconv.ParseInt(m["crt"], 10, 64)
	if err != nil {
		return nil, err
	}

	updUnix, err := strconv.ParseInt(m["upd"], 10, 64)
	if err != nil {
		return nil, err
	}

	return &models.Session{
		ID:        id,
		UserID:    uid,
		TokenHash: tokenHash,
		UserAgent: m["ua"],
		IP:        m["ip"],
		IsActive:  m["act"] == "1",
		ExpiresAt: time.Unix(expUnix, 0).UTC(),
		CreatedAt: time.Unix(crtUnix, 0).UTC(),
		UpdatedAt: time.Unix(updUnix, 0).UTC(),
	}, nil
}

func (c *redisCache) Put(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		// Просроченную сессию кэшировать нечего.
		return nil
	}

	kv := map[string]string{
		"id":  session.ID.String(),
		"uid": session.UserID.String(),
		"ua":  session.UserAgent,
		"ip":  session.IP,
		"act": boolTo01(session.IsActive),
		"exp": strconv.FormatInt(session.ExpiresAt.Unix(), 10),
		"crt": strconv.FormatInt(session.CreatedAt.Unix(), 10),
		"upd": strconv.FormatInt(session.UpdatedAt.Unix(), 10),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(session.TokenHash), kv)
	pipe.Expire(ctx, c.key(session.TokenHash), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Invalidate(ctx context.Context, tokenHash string) error {
	return c.rdb.Del(ctx, c.key(tokenHash)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }

func boolTo01(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
