package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmvet-auth.backend/internal/interfaces/http/handlers"
	"farmvet-auth.backend/internal/interfaces/http/middleware"
	"farmvet-auth.backend/pkg/metrics"
)

const (
	serviceName    = "farmvet-auth"
	serviceVersion = "1.0.0"
)

type routeDeps struct {
	authHandler         *handlers.AuthHandler
	registrationHandler *handlers.RegistrationHandler
	verificationHandler *handlers.VerificationHandler
	resetHandler        *handlers.PasswordResetHandler
	adminHandler        *handlers.AdminHandler
	authMiddleware      gin.HandlerFunc
	rateLimit           gin.HandlerFunc
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, m *metrics.Metrics) {
	r.GET("/metrics", gin.WrapH(m.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(d.rateLimit)
		{
			auth.POST("/register/", d.registrationHandler.Register)
			auth.GET("/verify-email/", d.verificationHandler.VerifyEmail)
			auth.POST("/verify-email/", d.verificationHandler.VerifyEmail)
			auth.POST("/resend-verification/", d.verificationHandler.ResendVerification)
			auth.POST("/phone/send-otp/", d.verificationHandler.SendPhoneOTP)
			auth.POST("/phone/verify-otp/", d.verificationHandler.VerifyPhoneOTP)

			auth.POST("/login/", d.authHandler.Login)
			auth.POST("/login/send-otp/", d.authHandler.SendLoginOTP)
			auth.POST("/login/verify-otp/", d.authHandler.VerifyLoginOTP)
			auth.POST("/token/refresh/", d.authHandler.RefreshToken)
			auth.GET("/me/", d.authMiddleware, d.authHandler.GetMe)

			auth.POST("/forgot-password/", d.resetHandler.ForgotPassword)
			auth.POST("/verify-token/", d.resetHandler.VerifyToken)
			auth.POST("/reset-password/", d.resetHandler.ResetPassword)
		}

		// Admin routes (protected)
		admin := auth.Group("/admin")
		admin.Use(d.authMiddleware, middleware.RequireAdmin())
		{
			admin.GET("/users/", d.adminHandler.ListUsers)
			admin.POST("/users/:id/approve/", d.adminHandler.Approve)
			admin.POST("/users/:id/decline/", d.adminHandler.Decline)
		}
	}
}
