package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/pribylovaa/go-auth-service/internal/security"
	"github.com/pribylovaa/go-auth-service/internal/storage"
	"github.com/pribylovaa/go-auth-service/mocks"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Тесты validateCredentials: единая форма отказа и выравнивание времени ответа.
//
// Проверяем:
//  - успех: активный пользователь, верный пароль, нормализация email;
//  - «не найден» / неверный пароль / деактивирован -> один и тот же
//    ErrInvalidCredentials;
//  - ровно одна bcrypt-проверка за вызов, включая ветку «не найден»
//    (фиктивное сравнение с dummyHash);
//  - каждый выход, включая успешный, не быстрее LoginMinDuration;
//  - инфраструктурная ошибка хранилища не маскируется под отказ входа.

// spyHasher считает bcrypt-проверки, делегируя работу настоящему хэшеру.
type spyHasher struct {
	inner    security.PasswordHasher
	verifies int
}

func (s *spyHasher) Hash(password string) (string, error) { return s.inner.Hash(password) }

func (s *spyHasher) Verify(hash, password string) bool {
	s.verifies++
	return s.inner.Verify(hash, password)
}

func newCredsSvc(t *testing.T) (*Service, *mocks.MockStorage, *spyHasher, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	spy := &spyHasher{inner: security.NewBcryptHasher(bcrypt.MinCost)}
	svc := New(st, testCfg(), spy)
	return svc, st, spy, ctrl
}

func TestValidateCredentials_OK(t *testing.T) {
	t.Parallel()

	svc, st, spy, ctrl := newCredsSvc(t)
	defer ctrl.Finish()

	pw := "Abcdef1!"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, pw),
		IsActive:     true,
	}

	// Email нормализуется до поиска: регистр и внешние пробелы не важны.
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

	started := time.Now()
	got, err := svc.validateCredentials(context.Background(), "  User@Example.com ", pw)
	elapsed := time.Since(started)

	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, 1, spy.verifies)
	// Успешная ветка тоже выравнивается по времени.
	require.GreaterOrEqual(t, elapsed, svc.cfg.LoginMinDuration)
}

func TestValidateCredentials_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, st, spy, ctrl := newCredsSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	started := time.Now()
	_, err := svc.validateCredentials(context.Background(), "ghost@example.com", "whatever")
	elapsed := time.Since(started)

	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	// Фиктивная проверка выполняется и на этой ветке.
	require.Equal(t, 1, spy.verifies)
	require.GreaterOrEqual(t, elapsed, svc.cfg.LoginMinDuration)
}

func TestValidateCredentials_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, spy, ctrl := newCredsSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, "Abcdef1!"),
		IsActive:     true,
	}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	_, err := svc.validateCredentials(context.Background(), user.Email, "WRONG1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, 1, spy.verifies)
}

func TestValidateCredentials_InactiveAccount(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newCredsSvc(t)
	defer ctrl.Finish()

	pw := "Abcdef1!"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, pw),
		IsActive:     false,
	}

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	// Пароль верный, но аккаунт деактивирован: отказ неотличим от остальных.
	_, err := svc.validateCredentials(context.Background(), user.Email, pw)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateCredentials_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newCredsSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, errors.New("db down"))

	_, err := svc.validateCredentials(context.Background(), "user@example.com", "Abcdef1!")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}
