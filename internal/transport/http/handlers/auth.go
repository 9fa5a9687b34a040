package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/pribylovaa/go-auth-service/internal/i18n"
	"github.com/pribylovaa/go-auth-service/internal/transport/http/httperr"
	"github.com/pribylovaa/go-auth-service/internal/transport/http/middleware"
)

// RegisterUser — POST /auth/register. Успешная регистрация сразу логинит
// пользователя: в ответ уходят и профиль, и первая пара токенов.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, h.msgs, httperr.ErrBadRequest)
		return
	}

	user, pair, err := h.svc.RegisterUser(r.Context(), in.Email, in.Password, in.ConfirmPassword, clientMeta(r))
	if err != nil {
		httperr.WriteError(w, r, h.msgs, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		User:   userViewFrom(user),
		Tokens: tokenPairViewFrom(pair),
	})
}

// LoginUser — POST /auth/login.
func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, h.msgs, httperr.ErrBadRequest)
		return
	}

	user, pair, err := h.svc.LoginUser(r.Context(), in.Email, in.Password, clientMeta(r))
	if err != nil {
		httperr.WriteError(w, r, h.msgs, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:   userViewFrom(user),
		Tokens: tokenPairViewFrom(pair),
	})
}

// RefreshTokens — POST /auth/refresh. В ответе только новая пара токенов.
func (h *Handlers) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, h.msgs, httperr.ErrBadRequest)
		return
	}

	pair, err := h.svc.RefreshTokens(r.Context(), in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, h.msgs, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairViewFrom(pair))
}

// LogoutUser — POST /auth/logout (под bearer). Тело опционально:
// с refresh_token отзывается одна сессия, без тела — все сессии
// пользователя. Подтверждение — локализованное сообщение.
func (h *Handlers) LogoutUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httperr.WriteError(w, r, h.msgs, httperr.ErrUnauthorized)
		return
	}

	var in logoutRequest
	if err := decodeStrict(r, &in); err != nil && !errors.Is(err, io.EOF) {
		httperr.WriteError(w, r, h.msgs, httperr.ErrBadRequest)
		return
	}

	if err := h.svc.LogoutUser(r.Context(), identity.UserID, in.RefreshToken); err != nil {
		httperr.WriteError(w, r, h.msgs, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: h.msgs.Message(r.Header.Get("Accept-Language"), i18n.KeyLogoutSuccess),
	})
}
