package handlers

import (
	"net/http"

	"github.com/pribylovaa/go-auth-service/internal/transport/http/httperr"
	"github.com/pribylovaa/go-auth-service/internal/transport/http/middleware"
)

// ActiveSessions — GET /auth/sessions (под bearer).
// Список живых сессий пользователя, новые первыми.
func (h *Handlers) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httperr.WriteError(w, r, h.msgs, httperr.ErrUnauthorized)
		return
	}

	sessions, err := h.svc.ActiveSessions(r.Context(), identity.UserID)
	if err != nil {
		httperr.WriteError(w, r, h.msgs, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionViewsFrom(sessions))
}

// SessionStats — GET /auth/sessions/stats (под bearer).
// Распределение живых сессий пользователя по User-Agent.
func (h *Handlers) SessionStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httperr.WriteError(w, r, h.msgs, httperr.ErrUnauthorized)
		return
	}

	stats, err := h.svc.SessionStatsByAgent(r.Context(), identity.UserID)
	if err != nil {
		httperr.WriteError(w, r, h.msgs, err)
		return
	}

	writeJSON(w, http.StatusOK, agentStatViewsFrom(stats))
}
