package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/pribylovaa/go-auth-service/internal/storage"
	"github.com/stretchr/testify/require"
)

func applySessionsMigration(t *testing.T, st *Storage) {
	t.Helper()
	_, err := st.db.Exec(context.Background(), readMigration(t, "2_init_sessions.up.sql"))
	require.NoError(t, err, "apply 2_init_sessions.up.sql")
}

// seedUser создаёт пользователя (сессии ссылаются на users по FK).
func seedUser(t *testing.T, st *Storage, email string) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.SaveUser(context.Background(), u))
	return u.ID
}

// testSession — активная сессия с часом жизни от now.
func testSession(userID uuid.UUID, tokenHash string, now time.Time) *models.Session {
	return &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		UserAgent: "go-test/1.0",
		IP:        "192.0.2.10",
		IsActive:  true,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIntegration_SaveSession_And_ActiveSessionByToken_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	sess := testSession(userID, "hash-1", now)
	require.NoError(t, st.SaveSession(ctx, sess))

	got, err := st.ActiveSessionByToken(ctx, "hash-1", userID, now)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, userID, got.UserID)
	require.Equal(t, "hash-1", got.TokenHash)
	require.Equal(t, sess.UserAgent, got.UserAgent)
	require.Equal(t, sess.IP, got.IP)
	require.True(t, got.IsActive)
	require.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)
	require.WithinDuration(t, now, got.CreatedAt, time.Second)
}

func TestIntegration_SaveSession_DuplicateHash_Violation(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	require.NoError(t, st.SaveSession(ctx, testSession(userID, "dup-hash", now)))

	err := st.SaveSession(ctx, testSession(userID, "dup-hash", now))
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_ActiveSessionByToken_FiltersDeadAndForeign — отозванные,
// просроченные и чужие сессии неотличимы от отсутствующих.
func TestIntegration_ActiveSessionByToken_FiltersDeadAndForeign(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	revoked := testSession(userID, "hash-revoked", now)
	revoked.IsActive = false
	require.NoError(t, st.SaveSession(ctx, revoked))

	expired := testSession(userID, "hash-expired", now)
	expired.ExpiresAt = now.Add(-time.Hour)
	require.NoError(t, st.SaveSession(ctx, expired))

	alive := testSession(userID, "hash-alive", now)
	require.NoError(t, st.SaveSession(ctx, alive))

	_, err := st.ActiveSessionByToken(ctx, "hash-revoked", userID, now)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.ActiveSessionByToken(ctx, "hash-expired", userID, now)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Живая сессия, но чужой владелец.
	_, err = st.ActiveSessionByToken(ctx, "hash-alive", uuid.New(), now)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := st.ActiveSessionByToken(ctx, "hash-alive", userID, now)
	require.NoError(t, err)
	require.Equal(t, alive.ID, got.ID)
}

func TestIntegration_RotateSession_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	sess := testSession(userID, "hash-old", now)
	require.NoError(t, st.SaveSession(ctx, sess))

	newExpires := now.Add(2 * time.Hour)
	require.NoError(t, st.RotateSession(ctx, sess.ID, "hash-old", "hash-new", newExpires, now))

	// Старый хэш больше не предъявить.
	_, err := st.ActiveSessionByToken(ctx, "hash-old", userID, now)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := st.ActiveSessionByToken(ctx, "hash-new", userID, now)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.WithinDuration(t, newExpires, got.ExpiresAt, time.Second)
	require.WithinDuration(t, now, got.UpdatedAt, time.Second)
}

// TestIntegration_RotateSession_LoserGetsNotFound — из двух ротаций одного
// токена выигрывает ровно одна, вторая видит 0 строк.
func TestIntegration_RotateSession_LoserGetsNotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	sess := testSession(userID, "hash-old", now)
	require.NoError(t, st.SaveSession(ctx, sess))

	require.NoError(t, st.RotateSession(ctx, sess.ID, "hash-old", "hash-winner", now.Add(2*time.Hour), now))

	err := st.RotateSession(ctx, sess.ID, "hash-old", "hash-loser", now.Add(2*time.Hour), now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_RotateSession_NewHashTaken_AlreadyExists(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	a := testSession(userID, "hash-a", now)
	require.NoError(t, st.SaveSession(ctx, a))
	b := testSession(userID, "hash-b", now)
	require.NoError(t, st.SaveSession(ctx, b))

	// Новый хэш уже занят соседней сессией.
	err := st.RotateSession(ctx, a.ID, "hash-a", "hash-b", now.Add(2*time.Hour), now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_RotateSession_DeadSession_NotFound — отозванную или
// просроченную сессию ротировать нельзя.
func TestIntegration_RotateSession_DeadSession_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	revoked := testSession(userID, "hash-revoked", now)
	revoked.IsActive = false
	require.NoError(t, st.SaveSession(ctx, revoked))

	err := st.RotateSession(ctx, revoked.ID, "hash-revoked", "hash-n1", now.Add(time.Hour), now)
	require.ErrorIs(t, err, storage.ErrNotFound)

	expired := testSession(userID, "hash-expired", now)
	expired.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, st.SaveSession(ctx, expired))

	err = st.RotateSession(ctx, expired.ID, "hash-expired", "hash-n2", now.Add(time.Hour), now)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_RevokeSession_Idempotent — logout одной сессии: повтор и
// неизвестный токен не являются ошибкой.
func TestIntegration_RevokeSession_Idempotent(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	sess := testSession(userID, "hash-1", now)
	require.NoError(t, st.SaveSession(ctx, sess))

	require.NoError(t, st.RevokeSession(ctx, userID, "hash-1", now))

	_, err := st.ActiveSessionByToken(ctx, "hash-1", userID, now)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Повторный logout и неизвестный хэш — no-op.
	require.NoError(t, st.RevokeSession(ctx, userID, "hash-1", now))
	require.NoError(t, st.RevokeSession(ctx, userID, "hash-unknown", now))
}

func TestIntegration_RevokeAllSessions_CountsOnlyActive(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	require.NoError(t, st.SaveSession(ctx, testSession(userID, "hash-1", now)))
	require.NoError(t, st.SaveSession(ctx, testSession(userID, "hash-2", now)))

	revoked := testSession(userID, "hash-3", now)
	revoked.IsActive = false
	require.NoError(t, st.SaveSession(ctx, revoked))

	count, err := st.RevokeAllSessions(ctx, userID, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// Второй вызов уже ничего не находит.
	count, err = st.RevokeAllSessions(ctx, userID, now)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestIntegration_ActiveSessionsByUser_OrderAndFiltering(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	otherID := seedUser(t, st, "other@example.com")
	now := time.Now().UTC()

	oldest := testSession(userID, "hash-oldest", now.Add(-2*time.Hour))
	middle := testSession(userID, "hash-middle", now.Add(-time.Hour))
	newest := testSession(userID, "hash-newest", now)
	require.NoError(t, st.SaveSession(ctx, oldest))
	require.NoError(t, st.SaveSession(ctx, middle))
	require.NoError(t, st.SaveSession(ctx, newest))

	revoked := testSession(userID, "hash-revoked", now)
	revoked.IsActive = false
	require.NoError(t, st.SaveSession(ctx, revoked))

	expired := testSession(userID, "hash-expired", now)
	expired.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, st.SaveSession(ctx, expired))

	require.NoError(t, st.SaveSession(ctx, testSession(otherID, "hash-foreign", now)))

	got, err := st.ActiveSessionsByUser(ctx, userID, now)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Новые первыми.
	require.Equal(t, "hash-newest", got[0].TokenHash)
	require.Equal(t, "hash-middle", got[1].TokenHash)
	require.Equal(t, "hash-oldest", got[2].TokenHash)
}

func TestIntegration_CountSessionsByUserAgent_GroupsAndSorts(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()

	withAgent := func(hash, agent string) *models.Session {
		s := testSession(userID, hash, now)
		s.UserAgent = agent
		return s
	}

	require.NoError(t, st.SaveSession(ctx, withAgent("hash-1", "iphone-app/2.1")))
	require.NoError(t, st.SaveSession(ctx, withAgent("hash-2", "iphone-app/2.1")))
	require.NoError(t, st.SaveSession(ctx, withAgent("hash-3", "android-app/3.0")))
	require.NoError(t, st.SaveSession(ctx, withAgent("hash-4", "chrome/126")))

	// Просроченная не учитывается.
	dead := withAgent("hash-5", "chrome/126")
	dead.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, st.SaveSession(ctx, dead))

	got, err := st.CountSessionsByUserAgent(ctx, userID, now)
	require.NoError(t, err)

	// count DESC, при равенстве user_agent ASC.
	require.Equal(t, []models.AgentStat{
		{UserAgent: "iphone-app/2.1", Count: 2},
		{UserAgent: "android-app/3.0", Count: 1},
		{UserAgent: "chrome/126", Count: 1},
	}, got)
}

func TestIntegration_DeleteDeadSessions(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "user@example.com")
	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour)

	// Просрочена задолго до cutoff — удаляется.
	longExpired := testSession(userID, "hash-long-expired", now.Add(-48*time.Hour))
	longExpired.ExpiresAt = now.Add(-30 * time.Hour)
	require.NoError(t, st.SaveSession(ctx, longExpired))

	// Отозвана задолго до cutoff (updated_at старый) — удаляется.
	longRevoked := testSession(userID, "hash-long-revoked", now.Add(-48*time.Hour))
	longRevoked.IsActive = false
	longRevoked.UpdatedAt = now.Add(-48 * time.Hour)
	require.NoError(t, st.SaveSession(ctx, longRevoked))

	// Отозвана недавно — переживает этот cutoff.
	freshRevoked := testSession(userID, "hash-fresh-revoked", now)
	freshRevoked.IsActive = false
	require.NoError(t, st.SaveSession(ctx, freshRevoked))

	// Живая — не трогается.
	alive := testSession(userID, "hash-alive", now)
	require.NoError(t, st.SaveSession(ctx, alive))

	deleted, err := st.DeleteDeadSessions(ctx, cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	// Живая сессия на месте.
	_, err = st.ActiveSessionByToken(ctx, "hash-alive", userID, now)
	require.NoError(t, err)

	// Поздний cutoff добирает недавно отозванную, но не живую.
	deleted, err = st.DeleteDeadSessions(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, err = st.ActiveSessionByToken(ctx, "hash-alive", userID, now)
	require.NoError(t, err)
}
