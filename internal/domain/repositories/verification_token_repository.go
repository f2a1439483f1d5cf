package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"farmvet-auth.backend/internal/domain/entities"
)

// TokenRepository stores single-code tokens. The purpose selects the table.
type TokenRepository interface {
	Create(ctx context.Context, token *entities.VerificationToken) error
	// FindLatestUnused returns the newest unused token of purpose for the
	// account whose code equals code, or ErrNotFound.
	FindLatestUnused(ctx context.Context, accountID uuid.UUID, purpose entities.TokenPurpose, code string) (*entities.VerificationToken, error)
	// MarkUsed flips used to true only if it is still false. ErrTokenAlreadyUsed otherwise.
	MarkUsed(ctx context.Context, purpose entities.TokenPurpose, id uuid.UUID) error
	// DeleteStale removes used tokens and tokens created before olderThan.
	DeleteStale(ctx context.Context, purpose entities.TokenPurpose, olderThan time.Time) (int64, error)
}

// LoginOTPRepository stores two-code login OTPs
type LoginOTPRepository interface {
	Create(ctx context.Context, otp *entities.LoginOTP) error
	FindLatestUnused(ctx context.Context, accountID uuid.UUID) (*entities.LoginOTP, error)
	MarkUsed(ctx context.Context, id uuid.UUID, emailVerified, phoneVerified bool) error
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}
