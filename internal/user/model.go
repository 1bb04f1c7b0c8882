package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrProfileNotFound    = apperror.New(http.StatusNotFound, "profile not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrInactiveUser       = apperror.New(http.StatusUnauthorized, "user is inactive")
	ErrEmailRequired      = apperror.New(http.StatusBadRequest, "email is required")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "password is too short")
	ErrInvalidUserType    = apperror.New(http.StatusBadRequest, "invalid user type")
)

// UserType is the marketplace role stored on the profile.
type UserType string

const (
	TypeBuyer  UserType = "buyer"
	TypeSeller UserType = "seller"
	TypeAdmin  UserType = "admin"
)

// User is the authentication record.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}

// Profile is the marketplace profile row keyed by user id.
// Admin status is derived from UserType and never stored independently.
type Profile struct {
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	Phone       *string   `json:"phone"`
	CompanyName *string   `json:"company_name"`
	UserType    UserType  `json:"user_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsAdmin reports whether the profile's role grants admin access.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.UserType == TypeAdmin
}
