package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UpsertCredentialRequest creates or rotates an account credential.
type UpsertCredentialRequest struct {
	Role     domain.Role `json:"role"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
}

// TechnicianRequest payload for roster management.
type TechnicianRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
	Password  string `json:"password,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// UserResponse is the operator view (no credential material).
type UserResponse struct {
	ID        string      `json:"id"`
	Role      domain.Role `json:"role"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Specialty string      `json:"specialty,omitempty"`
	Enabled   bool        `json:"enabled"`
	LastLogin *time.Time  `json:"last_login"`
}

// UserFromDomain maps an operator.
func UserFromDomain(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Role:      user.Role,
		Name:      user.Name,
		Email:     user.Email,
		Specialty: user.Specialty,
		Enabled:   user.Enabled,
		LastLogin: user.LastLogin,
	}
}
