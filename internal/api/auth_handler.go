package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/parts-market-backend/internal/auth"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/response"
	"github.com/nekogravitycat/parts-market-backend/internal/session"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
)

// AuthHandler exposes the session lifecycle over HTTP. Sign-in and sign-out
// go through the session manager so artifact storage, profile caching and
// cross-instance broadcast all happen in one place.
type AuthHandler struct {
	manager  *session.Manager
	provider session.Provider
	users    user.Service
}

func NewAuthHandler(manager *session.Manager, provider session.Provider, users user.Service) *AuthHandler {
	return &AuthHandler{
		manager:  manager,
		provider: provider,
		users:    users,
	}
}

// POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	sess, u, err := h.manager.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName, user.UserType(req.UserType))
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already used"})
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		User:    NewUserResponse(u),
		Session: NewSessionResponse(sess),
	})
}

// POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	sess, u, err := h.manager.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User:    NewUserResponse(u),
		Session: NewSessionResponse(sess),
	})
}

// POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	sess, u, err := h.provider.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User:    NewUserResponse(u),
		Session: NewSessionResponse(sess),
	})
}

// POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.manager.SignOut(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// GET /v1/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := auth.GetUserID(c)

	u, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	p, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		User:    NewUserResponse(u),
		Profile: NewProfileResponse(p),
	})
}

// PATCH /v1/me/profile
//
// Routed through the session manager so the durable profile cache and every
// other instance's in-memory copy are invalidated along with the update.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	userID := auth.GetUserID(c)
	p, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.CompanyName != nil {
		p.CompanyName = req.CompanyName
	}

	if err := h.manager.UpdateProfile(c.Request.Context(), p); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProfileResponse(p))
}
