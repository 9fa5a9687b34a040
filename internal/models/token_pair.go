package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе и обновлении сессии.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, предъявляемый для ротации пары;
//     на сервере хранится только его хэш;
//   - TokenType — схема авторизации, всегда "Bearer";
//   - ExpiresIn — срок жизни access-токена в целых секундах;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	TokenType       string
	ExpiresIn       int64
	AccessExpiresAt time.Time
}
