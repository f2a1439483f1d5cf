package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/pkg/crypto"
	"farmvet-auth.backend/pkg/metrics"
)

// CodeLength is the number of digits of every numeric code
const CodeLength = 6

var (
	generateNumericCode = crypto.GenerateNumericCode
	generateResetToken  = crypto.GenerateResetToken
)

// TokenService issues, validates and consumes single-use tokens
type TokenService struct {
	tokens    repositories.TokenRepository
	loginOTPs repositories.LoginOTPRepository
	policy    entities.TokenPolicy
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(
	tokens repositories.TokenRepository,
	loginOTPs repositories.LoginOTPRepository,
	policy entities.TokenPolicy,
	m *metrics.Metrics,
) *TokenService {
	return &TokenService{
		tokens:    tokens,
		loginOTPs: loginOTPs,
		policy:    policy,
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Now returns the current time of the service clock in UTC
func (s *TokenService) Now() time.Time {
	return s.now().UTC()
}

// TTL returns the lifetime of tokens of purpose
func (s *TokenService) TTL(purpose entities.TokenPurpose) time.Duration {
	return s.policy.TTL(purpose)
}

// Issue generates and persists a fresh token for the account
func (s *TokenService) Issue(ctx context.Context, accountID uuid.UUID, purpose entities.TokenPurpose) (*entities.VerificationToken, error) {
	var (
		code string
		err  error
	)
	if purpose == entities.PurposePasswordReset {
		code, err = generateResetToken()
	} else {
		code, err = generateNumericCode(CodeLength)
	}
	if err != nil {
		return nil, err
	}

	token := &entities.VerificationToken{
		AccountID: accountID,
		Purpose:   purpose,
		Code:      code,
		CreatedAt: s.Now(),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("create %s token: %w", purpose, err)
	}
	s.metrics.TokenIssued(string(purpose))
	return token, nil
}

// Validate returns the latest unused token of purpose whose code matches.
// ErrTokenNotFound when none matches, ErrTokenExpired when the match is past its ttl.
func (s *TokenService) Validate(ctx context.Context, accountID uuid.UUID, purpose entities.TokenPurpose, code string) (*entities.VerificationToken, error) {
	token, err := s.tokens.FindLatestUnused(ctx, accountID, purpose, code)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			s.metrics.TokenValidated(string(purpose), "not_found")
			return nil, domainerrors.ErrTokenNotFound
		}
		return nil, err
	}
	if token.IsExpired(s.Now(), s.TTL(purpose)) {
		s.metrics.TokenValidated(string(purpose), "expired")
		return nil, domainerrors.ErrTokenExpired
	}
	return token, nil
}

// Consume marks the token used. Only one caller can win for a given token.
func (s *TokenService) Consume(ctx context.Context, token *entities.VerificationToken) error {
	if err := s.tokens.MarkUsed(ctx, token.Purpose, token.ID); err != nil {
		if errors.Is(err, domainerrors.ErrTokenAlreadyUsed) {
			s.metrics.TokenValidated(string(token.Purpose), "already_used")
		}
		return err
	}
	token.Used = true
	s.metrics.TokenValidated(string(token.Purpose), "consumed")
	return nil
}

// ValidateAndConsume validates code and consumes the matching token in one step
func (s *TokenService) ValidateAndConsume(ctx context.Context, accountID uuid.UUID, purpose entities.TokenPurpose, code string) (*entities.VerificationToken, error) {
	token, err := s.Validate(ctx, accountID, purpose, code)
	if err != nil {
		return nil, err
	}
	if err := s.Consume(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// IssueLoginOTP creates a login OTP. The phone code is only generated when withPhone is set.
func (s *TokenService) IssueLoginOTP(ctx context.Context, accountID uuid.UUID, withPhone bool) (*entities.LoginOTP, error) {
	emailCode, err := generateNumericCode(CodeLength)
	if err != nil {
		return nil, err
	}
	otp := &entities.LoginOTP{
		AccountID: accountID,
		EmailCode: emailCode,
		CreatedAt: s.Now(),
	}
	if withPhone {
		if otp.PhoneCode, err = generateNumericCode(CodeLength); err != nil {
			return nil, err
		}
	}
	if err := s.loginOTPs.Create(ctx, otp); err != nil {
		return nil, fmt.Errorf("create login otp: %w", err)
	}
	s.metrics.TokenIssued(string(entities.PurposeLoginOTP))
	return otp, nil
}

// LatestLoginOTP returns the newest unused login OTP of the account.
// ErrTokenNotFound when there is none, ErrTokenExpired when it is past its ttl.
func (s *TokenService) LatestLoginOTP(ctx context.Context, accountID uuid.UUID) (*entities.LoginOTP, error) {
	otp, err := s.loginOTPs.FindLatestUnused(ctx, accountID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			s.metrics.TokenValidated(string(entities.PurposeLoginOTP), "not_found")
			return nil, domainerrors.ErrTokenNotFound
		}
		return nil, err
	}
	if otp.IsExpired(s.Now(), s.TTL(entities.PurposeLoginOTP)) {
		s.metrics.TokenValidated(string(entities.PurposeLoginOTP), "expired")
		return nil, domainerrors.ErrTokenExpired
	}
	return otp, nil
}

// ConsumeLoginOTP marks the OTP used and records which channels were proven
func (s *TokenService) ConsumeLoginOTP(ctx context.Context, otp *entities.LoginOTP, emailVerified, phoneVerified bool) error {
	purpose := string(entities.PurposeLoginOTP)
	if err := s.loginOTPs.MarkUsed(ctx, otp.ID, emailVerified, phoneVerified); err != nil {
		if errors.Is(err, domainerrors.ErrTokenAlreadyUsed) {
			s.metrics.TokenValidated(purpose, "already_used")
		}
		return err
	}
	otp.Used = true
	otp.EmailVerified = emailVerified
	otp.PhoneVerified = phoneVerified
	s.metrics.TokenValidated(purpose, "consumed")
	return nil
}
