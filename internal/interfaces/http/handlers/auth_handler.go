package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/interfaces/http/middleware"
	"farmvet-auth.backend/internal/interfaces/http/response"
)

// AuthHandler handles login and token endpoints
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates with phone and password
// POST /api/v1/auth/login/
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	loginSuccess(c, result)
}

// SendLoginOTP checks credentials and sends the login codes
// POST /api/v1/auth/login/send-otp/
func (h *AuthHandler) SendLoginOTP(c *gin.Context) {
	var input entities.SendLoginOTPInput
	if !bindJSON(c, &input) {
		return
	}

	if err := h.auth.SendLoginOTP(c.Request.Context(), &input); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "OTP sent. Check your email.")
}

// VerifyLoginOTP completes the OTP login
// POST /api/v1/auth/login/verify-otp/
func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	var input entities.VerifyLoginOTPInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.auth.VerifyLoginOTP(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	loginSuccess(c, result)
}

// RefreshToken exchanges a refresh token for a new pair
// POST /api/v1/auth/token/refresh/
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var input struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	pair, err := h.auth.RefreshToken(c.Request.Context(), input.Refresh)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	})
}

// GetMe returns the authenticated account
// GET /api/v1/auth/me/
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	account, err := h.auth.GetAccount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": account})
}

func loginSuccess(c *gin.Context, result *entities.AuthResponse) {
	body := gin.H{
		"message": "Login successful",
		"user":    result.User,
	}
	if result.SessionID != "" {
		body["session_id"] = result.SessionID
	} else {
		body["access"] = result.AccessToken
		body["refresh"] = result.RefreshToken
	}
	response.Success(c, http.StatusOK, body)
}
