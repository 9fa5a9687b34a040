package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-auth-service/internal/models"
	"github.com/pribylovaa/go-auth-service/internal/pkg/log"
)

// Значение claim "typ": access нельзя предъявить как refresh и наоборот,
// даже если секреты когда-нибудь совпадут.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// identityClaims — общий набор утверждений access- и refresh-токенов:
// sub (ID пользователя), email, role, плюс служебный typ.
// Refresh дополнительно несёт jti, чтобы два выпуска в одну секунду
// никогда не совпадали.
type identityClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity — данные пользователя, извлечённые из проверенного токена.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// issueTokenPair выпускает пару access+refresh из одного момента времени.
// Оба токена несут одинаковые identity-claims и подписываются независимо,
// каждый своим секретом. Функция не обращается к хранилищу.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User, now time.Time) (*models.TokenPair, error) {
	const op = "service.token.issueTokenPair"

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		TokenType:       "Bearer",
		ExpiresIn:       int64(s.cfg.AccessTokenTTL / time.Second),
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// generateAccessToken генерирует access-токен.
func (s *Service) generateAccessToken(ctx context.Context, user *models.User, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	lg := log.From(ctx)

	claims := identityClaims{
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// generateRefreshToken генерирует refresh-токен (отдельный секрет, свой TTL).
func (s *Service) generateRefreshToken(ctx context.Context, user *models.User, now time.Time) (string, error) {
	const op = "service.token.generateRefreshToken"

	lg := log.From(ctx)

	claims := identityClaims{
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// parseAccessToken валидирует access-токен и возвращает identity из claims.
func (s *Service) parseAccessToken(tokenStr string) (*Identity, error) {
	const op = "service.token.parseAccessToken"

	claims, err := s.parseToken(tokenStr, []byte(s.cfg.AccessSecret), tokenTypeAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return identity, nil
}

// parseRefreshToken валидирует refresh-токен. Любой дефект — подпись, срок,
// тип, содержимое claims — схлопывается в ErrInvalidToken: предъявителю
// не сообщается, что именно не так с токеном.
func (s *Service) parseRefreshToken(tokenStr string) (*Identity, error) {
	const op = "service.token.parseRefreshToken"

	claims, err := s.parseToken(tokenStr, []byte(s.cfg.RefreshSecret), tokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return identity, nil
}

// parseToken — общая проверка подписи и registered-claims.
func (s *Service) parseToken(tokenStr string, secret []byte, wantType string) (*identityClaims, error) {
	const op = "service.token.parseToken"

	token, err := jwt.ParseWithClaims(tokenStr, &identityClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: unexpected signing method", op)
			}

			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid claims", op)
	}

	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%s: unexpected token type", op)
	}

	return claims, nil
}

func identityFromClaims(claims *identityClaims) (*Identity, error) {
	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, err
	}

	return &Identity{
		UserID: uid,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
