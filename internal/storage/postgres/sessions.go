package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/pribylovaa/go-auth-service/internal/storage"
)

// SaveSession сохраняет новую сессию.
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	const op = "storage.postgres.SaveSession"

	query := `
		INSERT INTO sessions(id, user_id, token_hash, user_agent, ip, is_active, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.IP,
		session.IsActive,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ActiveSessionByToken находит активную непросроченную сессию по хэшу токена
// и владельцу. Отозванные и просроченные записи неотличимы от отсутствующих:
// в обоих случаях возвращается storage.ErrNotFound.
func (s *Storage) ActiveSessionByToken(ctx context.Context, tokenHash string, userID uuid.UUID, now time.Time) (*models.Session, error) {
	const op = "storage.postgres.ActiveSessionByToken"

	query := `
		SELECT id, user_id, token_hash, user_agent, ip, is_active, expires_at, created_at, updated_at
		FROM sessions
		WHERE token_hash = $1 AND user_id = $2 AND is_active = TRUE AND expires_at > $3
	`

	var session models.Session
	err := s.db.QueryRow(ctx, query, tokenHash, userID, now).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IP,
		&session.IsActive,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &session, nil
}

// RotateSession атомарно заменяет хэш токена сессии. Условие WHERE включает
// старый хэш: из N конкурентных ротаций одного токена выигрывает ровно одна,
// остальные видят 0 затронутых строк и получают ErrNotFound.
func (s *Storage) RotateSession(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt, now time.Time) error {
	const op = "storage.postgres.RotateSession"

	query := `
		UPDATE sessions
		SET token_hash = $3, expires_at = $4, updated_at = $5
		WHERE id = $1 AND token_hash = $2 AND is_active = TRUE AND expires_at > $5
	`

	cmdTag, err := s.db.Exec(ctx, query, id, oldHash, newHash, expiresAt, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// RevokeSession деактивирует одну сессию пользователя.
// Отсутствие подходящей строки не является ошибкой: logout идемпотентен.
func (s *Storage) RevokeSession(ctx context.Context, userID uuid.UUID, tokenHash string, now time.Time) error {
	const op = "storage.postgres.RevokeSession"

	query := `
		UPDATE sessions
		SET is_active = FALSE, updated_at = $3
		WHERE user_id = $1 AND token_hash = $2 AND is_active = TRUE
	`

	if _, err := s.db.Exec(ctx, query, userID, tokenHash, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RevokeAllSessions деактивирует все активные сессии пользователя.
func (s *Storage) RevokeAllSessions(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	const op = "storage.postgres.RevokeAllSessions"

	query := `
		UPDATE sessions
		SET is_active = FALSE, updated_at = $2
		WHERE user_id = $1 AND is_active = TRUE
	`

	cmdTag, err := s.db.Exec(ctx, query, userID, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}

// ActiveSessionsByUser возвращает активные сессии пользователя, новые первыми.
func (s *Storage) ActiveSessionsByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Session, error) {
	const op = "storage.postgres.ActiveSessionsByUser"

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, token_hash, user_agent, ip, is_active, expires_at, created_at, updated_at
		FROM sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > $2
		ORDER BY created_at DESC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if scanErr := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.TokenHash,
			&session.UserAgent,
			&session.IP,
			&session.IsActive,
			&session.ExpiresAt,
			&session.CreatedAt,
			&session.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		sessions = append(sessions, session)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return sessions, nil
}

// CountSessionsByUserAgent группирует активные сессии пользователя по User-Agent.
// Сортировка фиксирована: count DESC, user_agent ASC.
func (s *Storage) CountSessionsByUserAgent(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.AgentStat, error) {
	const op = "storage.postgres.CountSessionsByUserAgent"

	rows, err := s.db.Query(ctx, `
		SELECT user_agent, COUNT(*)
		FROM sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > $2
		GROUP BY user_agent
		ORDER BY COUNT(*) DESC, user_agent ASC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var stats []models.AgentStat
	for rows.Next() {
		var stat models.AgentStat
		if scanErr := rows.Scan(&stat.UserAgent, &stat.Count); scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		stats = append(stats, stat)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return stats, nil
}

// DeleteDeadSessions удаляет сессии, просроченные либо отозванные до cutoff.
func (s *Storage) DeleteDeadSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "storage.postgres.DeleteDeadSessions"

	query := `
		DELETE FROM sessions
		WHERE expires_at <= $1 OR (is_active = FALSE AND updated_at <= $1)
	`

	cmdTag, err := s.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}
