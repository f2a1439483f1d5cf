package usecases

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/pkg/logger"
)

// VerificationUsecase proves ownership of the email address and phone number
type VerificationUsecase struct {
	accounts repositories.AccountRepository
	uow      repositories.UnitOfWork
	tokens   *TokenService
	notifier *Notifier
	limiter  OTPRateLimiter
}

// NewVerificationUsecase creates a new verification usecase
func NewVerificationUsecase(
	accounts repositories.AccountRepository,
	uow repositories.UnitOfWork,
	tokens *TokenService,
	notifier *Notifier,
	limiter OTPRateLimiter,
) *VerificationUsecase {
	return &VerificationUsecase{
		accounts: accounts,
		uow:      uow,
		tokens:   tokens,
		notifier: notifier,
		limiter:  limiter,
	}
}

// VerifyEmail consumes an email code and marks the email verified
func (uc *VerificationUsecase) VerifyEmail(ctx context.Context, email, code string) error {
	account, err := uc.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	return uc.consume(ctx, account, entities.PurposeEmailVerification, code, uc.accounts.SetEmailVerified)
}

// ResendEmailVerification issues a new email code. Older codes stay valid but unreachable once superseded.
func (uc *VerificationUsecase) ResendEmailVerification(ctx context.Context, email string) error {
	account, err := uc.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if err := allow(ctx, uc.limiter, "email:"+account.Email); err != nil {
		return err
	}
	token, err := uc.tokens.Issue(ctx, account.ID, entities.PurposeEmailVerification)
	if err != nil {
		return err
	}
	uc.notifier.SendEmailVerification(ctx, account.Email, token.Code)
	return nil
}

// SendPhoneOTP issues a new phone code for the account owning phone
func (uc *VerificationUsecase) SendPhoneOTP(ctx context.Context, phone string) error {
	account, err := uc.accounts.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return err
	}
	if err := allow(ctx, uc.limiter, "phone:"+account.Phone); err != nil {
		return err
	}
	token, err := uc.tokens.Issue(ctx, account.ID, entities.PurposePhoneVerification)
	if err != nil {
		return err
	}
	uc.notifier.SendPhoneVerification(ctx, account.Phone, account.Email, token.Code)
	return nil
}

// VerifyPhoneOTP consumes a phone code and marks the phone verified
func (uc *VerificationUsecase) VerifyPhoneOTP(ctx context.Context, phone, code string) error {
	account, err := uc.accounts.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return err
	}
	return uc.consume(ctx, account, entities.PurposePhoneVerification, code, uc.accounts.SetPhoneVerified)
}

func (uc *VerificationUsecase) consume(
	ctx context.Context,
	account *entities.Account,
	purpose entities.TokenPurpose,
	code string,
	markVerified func(context.Context, uuid.UUID) error,
) error {
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		if _, err := uc.tokens.ValidateAndConsume(txCtx, account.ID, purpose, strings.TrimSpace(code)); err != nil {
			return err
		}
		return markVerified(txCtx, account.ID)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "Channel verified",
		zap.String("account_id", account.ID.String()),
		zap.String("purpose", string(purpose)),
	)
	return nil
}

// allow consults the limiter. A limiter failure lets the request through.
func allow(ctx context.Context, limiter OTPRateLimiter, key string) error {
	if limiter == nil {
		return nil
	}
	ok, err := limiter.Allow(ctx, key)
	if err != nil {
		logger.Warn(ctx, "OTP rate limiter unavailable", zap.Error(err))
		return nil
	}
	if !ok {
		return domainerrors.ErrRateLimited
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
