package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/сессия).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/token_hash).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdateLastLogin обновляет метку последнего входа.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SessionStorage выполняет операции над refresh-сессиями.
type SessionStorage interface {
	// SaveSession сохраняет новую сессию.
	SaveSession(ctx context.Context, session *models.Session) error
	// ActiveSessionByToken находит активную непросроченную сессию
	// по хэшу токена и владельцу.
	ActiveSessionByToken(ctx context.Context, tokenHash string, userID uuid.UUID, now time.Time) (*models.Session, error)
	// RotateSession атомарно заменяет хэш токена сессии при условии,
	// что старый хэш всё ещё на месте и сессия жива. Проигравший
	// конкурентную ротацию получает ErrNotFound.
	RotateSession(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt, now time.Time) error
	// RevokeSession деактивирует одну сессию пользователя;
	// отсутствие записи не является ошибкой.
	RevokeSession(ctx context.Context, userID uuid.UUID, tokenHash string, now time.Time) error
	// RevokeAllSessions деактивирует все активные сессии пользователя,
	// возвращает число затронутых строк.
	RevokeAllSessions(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	// ActiveSessionsByUser возвращает активные сессии пользователя,
	// новые первыми.
	ActiveSessionsByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Session, error)
	// CountSessionsByUserAgent группирует активные сессии пользователя
	// по User-Agent.
	CountSessionsByUserAgent(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.AgentStat, error)
	// DeleteDeadSessions удаляет сессии, просроченные либо отозванные
	// до cutoff. Возвращает число удалённых строк.
	DeleteDeadSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	SessionStorage
	Close()
}
