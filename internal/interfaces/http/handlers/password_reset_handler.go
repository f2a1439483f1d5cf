package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/internal/interfaces/http/response"
)

// PasswordResetHandler handles the forgot password flow
type PasswordResetHandler struct {
	reset PasswordResetService
}

// NewPasswordResetHandler creates a new password reset handler
func NewPasswordResetHandler(reset PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{reset: reset}
}

type tokenCheckRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
}

// ForgotPassword POST /api/v1/auth/forgot-password/
func (h *PasswordResetHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Reset token sent to your email")
}

// VerifyToken POST /api/v1/auth/verify-token/
func (h *PasswordResetHandler) VerifyToken(c *gin.Context) {
	var req tokenCheckRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.reset.CheckToken(c.Request.Context(), req.Email, req.Token); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Token is valid")
}

// ResetPassword POST /api/v1/auth/reset-password/
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var input entities.ResetPasswordInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.reset.Reset(c.Request.Context(), &input); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Password has been reset successfully")
}
