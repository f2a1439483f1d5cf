package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/pkg/jwt"
	"farmvet-auth.backend/pkg/redis"
)

// NotificationDispatcher hands messages to the outbound channels.
// Both calls are fire and forget; the returned id is only used for logging
// and is empty when the message could not be queued.
type NotificationDispatcher interface {
	SendEmail(ctx context.Context, to, subject, body string) string
	SendSMS(ctx context.Context, to, body string) string
}

// OTPRateLimiter bounds how often codes are sent for one identifier
type OTPRateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SessionIssuer mints the bearer pair handed out after a successful login
type SessionIssuer interface {
	GenerateTokenPair(userID uuid.UUID, email, role string) (*jwt.TokenPair, error)
	ValidateRefreshToken(tokenString string) (*jwt.Claims, error)
	RefreshExpiry() time.Duration
}

// SessionStore keeps issued pairs server side when the client asks for a session id
type SessionStore interface {
	CreateSession(ctx context.Context, sessionID string, data *redis.SessionData, expiration time.Duration) error
}

// DocumentStore persists uploaded identity documents and returns their stored path
type DocumentStore interface {
	Validate(doc *entities.Document) error
	Save(ctx context.Context, accountID uuid.UUID, kind string, doc *entities.Document) (string, error)
	Delete(ctx context.Context, path string) error
}
