// Входные/выходные модели REST-слоя. Временные метки — Unix UTC.
package handlers

import (
	"github.com/pribylovaa/go-auth-service/internal/models"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type userView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	LastLoginAt int64  `json:"last_login_at,omitempty"` // Unix UTC; 0 — входов ещё не было.
	CreatedAt   int64  `json:"created_at"`              // Unix UTC
}

type tokenPairView struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int64  `json:"expires_in"`        // секунды жизни access-токена
	AccessExpiresAt int64  `json:"access_expires_at"` // Unix UTC
}

type authResponse struct {
	User   userView      `json:"user"`
	Tokens tokenPairView `json:"tokens"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// sessionView — сессия для выдачи наружу; хэш токена не сериализуется никогда.
type sessionView struct {
	ID        string `json:"id"`
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
	CreatedAt int64  `json:"created_at"` // Unix UTC
	ExpiresAt int64  `json:"expires_at"` // Unix UTC
}

type agentStatView struct {
	UserAgent string `json:"user_agent"`
	Count     int64  `json:"count"`
}

func userViewFrom(u *models.SafeUser) userView {
	view := userView{
		ID:        u.ID.String(),
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Unix(),
	}
	if u.LastLoginAt != nil {
		view.LastLoginAt = u.LastLoginAt.Unix()
	}

	return view
}

func tokenPairViewFrom(p *models.TokenPair) tokenPairView {
	return tokenPairView{
		AccessToken:     p.AccessToken,
		RefreshToken:    p.RefreshToken,
		TokenType:       p.TokenType,
		ExpiresIn:       p.ExpiresIn,
		AccessExpiresAt: p.AccessExpiresAt.Unix(),
	}
}

func sessionViewsFrom(sessions []models.Session) []sessionView {
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			ID:        s.ID.String(),
			UserAgent: s.UserAgent,
			IP:        s.IP,
			CreatedAt: s.CreatedAt.Unix(),
			ExpiresAt: s.ExpiresAt.Unix(),
		})
	}

	return views
}

func agentStatViewsFrom(stats []models.AgentStat) []agentStatView {
	views := make([]agentStatView, 0, len(stats))
	for _, st := range stats {
		views = append(views, agentStatView{
			UserAgent: st.UserAgent,
			Count:     st.Count,
		})
	}

	return views
}
