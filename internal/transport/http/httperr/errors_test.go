package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pribylovaa/go-auth-service/internal/i18n"
	"github.com/pribylovaa/go-auth-service/internal/service"
	"github.com/stretchr/testify/require"
)

func TestToHTTP_BaseMapping(t *testing.T) {
	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
		wantKey    string
	}{
		{"bad_request", ErrBadRequest, http.StatusBadRequest, "bad_request", i18n.KeyBadRequest},
		{"password_mismatch", service.ErrPasswordMismatch, http.StatusBadRequest, "password_mismatch", i18n.KeyPasswordMismatch},
		{"invalid_email", service.ErrInvalidEmail, http.StatusBadRequest, "invalid_email", i18n.KeyInvalidEmail},
		{"email_taken", service.ErrEmailTaken, http.StatusConflict, "email_taken", i18n.KeyEmailTaken},
		{"invalid_credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", i18n.KeyInvalidCredentials},
		{"invalid_token", service.ErrInvalidToken, http.StatusUnauthorized, "invalid_or_expired_token", i18n.KeyInvalidToken},
		{"token_expired", service.ErrTokenExpired, http.StatusUnauthorized, "token_expired", i18n.KeyTokenExpired},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthenticated", i18n.KeyUnauthorized},
		{"login_failed", service.ErrLoginFailed, http.StatusInternalServerError, "login_failed", i18n.KeyLoginFailed},
		{"route_not_found", ErrRouteNotFound, http.StatusNotFound, "not_found", i18n.KeyNotFound},
		{"method_not_allowed", ErrMethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed", i18n.KeyMethodNotAllowed},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded", i18n.KeyTimeout},
		{"canceled", context.Canceled, StatusClientClosedRequest, "canceled", "canceled"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal", i18n.KeyInternal},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, gotCode, gotKey := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, gotCode)
			require.Equal(t, tc.wantKey, gotKey)
		})
	}
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	gotStatus, gotCode, _ := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", gotCode)
}

// TestToHTTP_WrappedError_Unwraps — сервис возвращает обёрнутые сентинелы
// (fmt.Errorf("%s: %w", op, err)); маппинг обязан видеть их сквозь обёртку.
func TestToHTTP_WrappedError_Unwraps(t *testing.T) {
	wrapped := fmt.Errorf("service.RegisterUser: %w", service.ErrEmailTaken)

	gotStatus, gotCode, _ := ToHTTP(wrapped)
	require.Equal(t, http.StatusConflict, gotStatus)
	require.Equal(t, "email_taken", gotCode)
}

func TestWriteError_LocalizesAndPropagatesRequestID(t *testing.T) {
	msgs := i18n.New()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("Accept-Language", "ru")
	req.Header.Set("X-Request-Id", "rid-123")

	rr := httptest.NewRecorder()
	WriteError(rr, req, msgs, service.ErrInvalidCredentials)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "invalid_credentials", resp.Error.Code)
	require.Equal(t, "неверный email или пароль", resp.Error.Message)
	require.Equal(t, "rid-123", resp.Error.RequestID)
}

func TestWriteError_UnknownLanguage_FallsBackToEnglish(t *testing.T) {
	msgs := i18n.New()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("Accept-Language", "xx-YY")

	rr := httptest.NewRecorder()
	WriteError(rr, req, msgs, service.ErrEmailTaken)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "email is already registered", resp.Error.Message)
	require.Empty(t, resp.Error.RequestID)
}

// msgs == nil — каталог недоступен; наружу уходит ключ сообщения.
func TestWriteError_NilMessages_FallsBackToKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/sessions", nil)

	rr := httptest.NewRecorder()
	WriteError(rr, req, nil, service.ErrTokenExpired)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, i18n.KeyTokenExpired, resp.Error.Message)
}
