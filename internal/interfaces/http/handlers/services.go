package handlers

import (
	"context"

	"github.com/google/uuid"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/pkg/jwt"
	"farmvet-auth.backend/pkg/utils"
)

// AuthService is the login surface used by AuthHandler
type AuthService interface {
	Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error)
	SendLoginOTP(ctx context.Context, input *entities.SendLoginOTPInput) error
	VerifyLoginOTP(ctx context.Context, input *entities.VerifyLoginOTPInput) (*entities.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*entities.Account, error)
}

// RegistrationService creates accounts
type RegistrationService interface {
	Register(ctx context.Context, input *entities.RegisterInput) (*entities.Account, error)
}

// VerificationService proves email and phone ownership
type VerificationService interface {
	VerifyEmail(ctx context.Context, email, code string) error
	ResendEmailVerification(ctx context.Context, email string) error
	SendPhoneOTP(ctx context.Context, phone string) error
	VerifyPhoneOTP(ctx context.Context, phone, code string) error
}

// PasswordResetService runs the forgot password flow
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	CheckToken(ctx context.Context, email, token string) error
	Reset(ctx context.Context, input *entities.ResetPasswordInput) error
}

// AdminService reviews accounts
type AdminService interface {
	Approve(ctx context.Context, actorID, accountID uuid.UUID) error
	Decline(ctx context.Context, actorID, accountID uuid.UUID) error
	ListAccounts(ctx context.Context, actorID uuid.UUID, filter entities.AccountFilter, pagination utils.PaginationParams) ([]*entities.Account, int64, error)
}
