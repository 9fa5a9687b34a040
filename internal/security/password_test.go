package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Тесты для internal/security (password.go).
//
// Покрытие:
//  - Hash/Verify round-trip;
//  - неверный пароль и «битый» хэш -> false;
//  - ошибка bcrypt на паролях длиннее 72 байт;
//  - нормализация стоимости вне допустимого диапазона.

// TestBcryptHasher_RoundTrip — выданный хэш проходит проверку исходным паролем.
func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.True(t, strings.HasPrefix(hash, "$2a$"), "ожидаем bcrypt-префикс")

	require.True(t, h.Verify(hash, "s3cret-pass"))
}

// TestBcryptHasher_Verify_Negative — несовпадение пароля и мусорный хэш.
func TestBcryptHasher_Verify_Negative(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct")
	require.NoError(t, err)

	require.False(t, h.Verify(hash, "incorrect"))
	require.False(t, h.Verify("not-a-bcrypt-hash", "correct"))
	require.False(t, h.Verify("", "correct"))
}

// TestBcryptHasher_Hash_TooLongPassword — bcrypt ограничен 72 байтами.
func TestBcryptHasher_Hash_TooLongPassword(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("x", 100))
	require.Error(t, err)
}

// TestNewBcryptHasher_CostOutOfRange — стоимость вне диапазона заменяется дефолтной.
func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	t.Parallel()

	for _, cost := range []int{-1, 0, bcrypt.MaxCost + 1} {
		h := NewBcryptHasher(cost)
		require.Equal(t, bcrypt.DefaultCost, h.cost)
	}

	h := NewBcryptHasher(bcrypt.MinCost)
	require.Equal(t, bcrypt.MinCost, h.cost)
}
