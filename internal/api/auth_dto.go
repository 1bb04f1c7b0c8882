package api

import (
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/session"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
)

// RegisterRequest is the payload for POST /v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	FullName string `json:"full_name" binding:"required,min=1,max=200"`
	UserType string `json:"user_type" binding:"required,oneof=buyer seller"`
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the payload for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SessionResponse carries the token set of an authenticated session.
type SessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func NewSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
}

// UserResponse is the shape of user data returned by auth endpoints.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		IsActive:    u.IsActive,
	}
}

// ProfileResponse is the marketplace profile shape.
type ProfileResponse struct {
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	Phone       *string   `json:"phone,omitempty"`
	CompanyName *string   `json:"company_name,omitempty"`
	UserType    string    `json:"user_type"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewProfileResponse(p *user.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:      p.UserID,
		FullName:    p.FullName,
		Phone:       p.Phone,
		CompanyName: p.CompanyName,
		UserType:    string(p.UserType),
		IsAdmin:     p.IsAdmin(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// AuthResponse is the response for register/login/refresh.
type AuthResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

// MeResponse is the response for GET /v1/me.
type MeResponse struct {
	User    UserResponse    `json:"user"`
	Profile ProfileResponse `json:"profile"`
}

// UpdateProfileRequest defines fields changeable via PATCH /v1/me/profile.
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name" binding:"omitempty,min=1,max=200"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
	CompanyName *string `json:"company_name" binding:"omitempty,max=200"`
}
