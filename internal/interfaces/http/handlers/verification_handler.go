package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmvet-auth.backend/internal/interfaces/http/response"
)

// VerificationHandler handles email and phone verification
type VerificationHandler struct {
	verification VerificationService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(verification VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

type emailCodeRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
	Code  string `json:"code" form:"code" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type phoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type phoneCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyEmail accepts the code either as a JSON body or, for links, as query parameters
// GET|POST /api/v1/auth/verify-email/
func (h *VerificationHandler) VerifyEmail(c *gin.Context) {
	var req emailCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindingError(err))
		return
	}
	if err := h.verification.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Email verified.")
}

// ResendVerification POST /api/v1/auth/resend-verification/
func (h *VerificationHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.verification.ResendEmailVerification(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Verification email resent.")
}

// SendPhoneOTP POST /api/v1/auth/phone/send-otp/
func (h *VerificationHandler) SendPhoneOTP(c *gin.Context) {
	var req phoneRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.verification.SendPhoneOTP(c.Request.Context(), req.Phone); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "OTP sent.")
}

// VerifyPhoneOTP POST /api/v1/auth/phone/verify-otp/
func (h *VerificationHandler) VerifyPhoneOTP(c *gin.Context) {
	var req phoneCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.verification.VerifyPhoneOTP(c.Request.Context(), req.Phone, req.Code); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Phone verified.")
}
