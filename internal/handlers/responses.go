package handlers

import "github.com/nfrund/parley/internal/domain"

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Message string `json:"message"`
}

// AuthResponse is returned by register and login: the user's public profile
// plus a fresh bearer token.
type AuthResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Pic   string `json:"pic,omitempty"`
	Token string `json:"token"`
}

// NewAuthResponse builds an AuthResponse from a user and token.
func NewAuthResponse(user *domain.User, token string) *AuthResponse {
	return &AuthResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Pic:   user.Pic,
		Token: token,
	}
}

// PresenceResponse is returned by GET /api/presence.
type PresenceResponse struct {
	OnlineUsers []string `json:"online_users"`
	Count       int      `json:"count"`
}
