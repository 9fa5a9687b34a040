// Package security — хэширование и проверка паролей.
package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher абстрагирует алгоритм хэширования паролей.
// Сервисный слой зависит от интерфейса, чтобы в тестах можно было
// подставить дешёвую реализацию.
type PasswordHasher interface {
	// Hash возвращает хэш пароля.
	Hash(password string) (string, error)
	// Verify сообщает, соответствует ли пароль хэшу.
	Verify(hash, password string) bool
}

// BcryptHasher — PasswordHasher поверх bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher возвращает bcrypt-хэшер с заданной стоимостью.
// Значения вне [bcrypt.MinCost, bcrypt.MaxCost] заменяются на bcrypt.DefaultCost.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return BcryptHasher{cost: cost}
}

// Hash возвращает bcrypt-хэш пароля.
func (h BcryptHasher) Hash(password string) (string, error) {
	const op = "security.BcryptHasher.Hash"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(hash), nil
}

// Verify сообщает, соответствует ли пароль хэшу.
// Любая ошибка сравнения (в том числе битый хэш) трактуется как несовпадение.
func (h BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var _ PasswordHasher = BcryptHasher{}
