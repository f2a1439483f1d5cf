package usecases

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/pkg/logger"
)

// PasswordResetUsecase lets the owner of an email address set a new password
type PasswordResetUsecase struct {
	accounts repositories.AccountRepository
	uow      repositories.UnitOfWork
	tokens   *TokenService
	notifier *Notifier
	limiter  OTPRateLimiter
}

// NewPasswordResetUsecase creates a new password reset usecase
func NewPasswordResetUsecase(
	accounts repositories.AccountRepository,
	uow repositories.UnitOfWork,
	tokens *TokenService,
	notifier *Notifier,
	limiter OTPRateLimiter,
) *PasswordResetUsecase {
	return &PasswordResetUsecase{
		accounts: accounts,
		uow:      uow,
		tokens:   tokens,
		notifier: notifier,
		limiter:  limiter,
	}
}

// RequestReset issues a reset token and mails it. The token is never returned.
func (uc *PasswordResetUsecase) RequestReset(ctx context.Context, email string) error {
	account, err := uc.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if err := allow(ctx, uc.limiter, "reset:"+account.Email); err != nil {
		return err
	}
	token, err := uc.tokens.Issue(ctx, account.ID, entities.PurposePasswordReset)
	if err != nil {
		return err
	}
	uc.notifier.SendPasswordReset(ctx, account.Email, account.FullName, token.Code)
	logger.Info(ctx, "Password reset requested", zap.String("account_id", account.ID.String()))
	return nil
}

// CheckToken reports whether token is currently usable without consuming it
func (uc *PasswordResetUsecase) CheckToken(ctx context.Context, email, token string) error {
	account, err := uc.lookup(ctx, email)
	if err != nil {
		return err
	}
	_, err = uc.tokens.Validate(ctx, account.ID, entities.PurposePasswordReset, strings.TrimSpace(token))
	return err
}

// Reset consumes the token and stores the new password in one transaction
func (uc *PasswordResetUsecase) Reset(ctx context.Context, input *entities.ResetPasswordInput) error {
	if input.NewPassword != input.ConfirmPassword {
		return domainerrors.NewValidationError("confirm_password", "Passwords do not match.")
	}
	account, err := uc.lookup(ctx, input.Email)
	if err != nil {
		return err
	}
	if err := checkStrengthField("new_password", input.NewPassword, account.Username, account.Email, account.FullName); err != nil {
		return err
	}
	hash, err := hashPassword(input.NewPassword)
	if err != nil {
		return err
	}

	err = uc.uow.Do(ctx, func(txCtx context.Context) error {
		if _, err := uc.tokens.ValidateAndConsume(txCtx, account.ID, entities.PurposePasswordReset, strings.TrimSpace(input.Token)); err != nil {
			return err
		}
		return uc.accounts.UpdatePassword(txCtx, account.ID, hash)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "Password reset", zap.String("account_id", account.ID.String()))
	return nil
}

// lookup hides unknown emails behind the same error as an unknown token
func (uc *PasswordResetUsecase) lookup(ctx context.Context, email string) (*entities.Account, error) {
	account, err := uc.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrTokenNotFound
		}
		return nil, err
	}
	return account, nil
}
