package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/interfaces/http/response"
	"farmvet-auth.backend/pkg/jwt"
	"farmvet-auth.backend/pkg/logger"
	"farmvet-auth.backend/pkg/redis"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// SessionHeader carries a server side session id instead of a bearer token
	SessionHeader = "X-Session-ID"
	// UserIDKey is the context key for user ID
	UserIDKey = "userId"
	// UserEmailKey is the context key for user email
	UserEmailKey = "userEmail"
	// UserRoleKey is the context key for user role
	UserRoleKey = "userRole"
)

// AccessTokenValidator validates access tokens
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// SessionReader resolves a session id to the stored token pair
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
}

// AuthMiddleware accepts a bearer access token or, when sessions is set, a session id header
func AuthMiddleware(tokens AccessTokenValidator, sessions SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tokenString, reason := extractToken(c, sessions)
		if reason != "" {
			logger.Debug(ctx, "Authentication failed", zap.String("path", c.Request.URL.Path), zap.String("reason", reason))
			response.Error(c, domainerrors.Unauthorized(reason))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateAccessToken(tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token has expired"
			}
			response.Error(c, domainerrors.Unauthorized(msg))
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, claims.Role)
		c.Request = c.Request.WithContext(context.WithValue(ctx, logger.AccountIDKey, claims.UserID.String()))

		c.Next()
	}
}

// extractToken returns the access token or a client-facing reason
func extractToken(c *gin.Context, sessions SessionReader) (string, string) {
	if sessionID := strings.TrimSpace(c.GetHeader(SessionHeader)); sessionID != "" && sessions != nil {
		session, err := sessions.GetSession(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, redis.ErrSessionNotFound) {
				logger.Warn(c.Request.Context(), "Session lookup failed", zap.Error(err))
			}
			return "", "Session not found or expired"
		}
		return session.AccessToken, ""
	}

	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return "", "Authorization header is required"
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", "Invalid authorization format. Use: Bearer <token>"
	}
	return strings.TrimPrefix(authHeader, BearerPrefix), ""
}

// GetUserID gets the user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	return id, ok
}

// GetUserRole gets the user role from context
func GetUserRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	s, ok := role.(string)
	return s, ok
}

// RequireRole creates a middleware that requires a specific role
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := GetUserRole(c)
		if !exists {
			response.Error(c, domainerrors.Unauthorized("User role not found"))
			c.Abort()
			return
		}

		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}

		response.Error(c, domainerrors.Forbidden("Insufficient permissions"))
		c.Abort()
	}
}

// RequireAdmin creates a middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("admin")
}
