package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/services"
	"github.com/tofa/academy-backend/internal/utils"
)

// AuthHandler exposes login, token refresh and logout.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest is the login payload. The form tags accept the OAuth2-style
// username/password POST the web client sends.
type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RefreshRequest carries the refresh token being rotated.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest revokes the presented session, or all of them.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	Everywhere   bool   `json:"everywhere"`
}

// Login handles POST /api/v1/token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondValidationError(c, "email and password are required")
		return
	}

	pair, err := h.authService.Login(req.Email, req.Password, utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid email or password",
				Code:    "INVALID_CREDENTIALS",
			})
			return
		}
		logrus.WithField("error", err.Error()).Error("login failed")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /api/v1/token/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "refresh_token is required")
		return
	}

	pair, err := h.authService.Refresh(req.RefreshToken, utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Refresh token is invalid or revoked",
			Code:    "INVALID_REFRESH_TOKEN",
		})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Logout handles POST /api/v1/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "refresh_token is required")
		return
	}

	if err := h.authService.Logout(req.RefreshToken, req.Everywhere); err != nil {
		logrus.WithField("error", err.Error()).Error("logout failed")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Logged out"})
}

// Me handles GET /api/v1/me
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id":    userCtx.UserID,
		"email":      userCtx.Email,
		"role":       userCtx.Role,
		"center_ids": userCtx.CenterIDs,
	})
}
