package usecases

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/pkg/crypto"
	"farmvet-auth.backend/pkg/jwt"
	"farmvet-auth.backend/pkg/logger"
	"farmvet-auth.backend/pkg/metrics"
	"farmvet-auth.backend/pkg/redis"
)

const (
	loginDirect = "direct"
	loginOTP    = "otp"
)

var (
	checkPassword = crypto.CheckPassword

	// compared against when the account does not exist so both paths pay for bcrypt
	dummyPasswordHash = sync.OnceValue(func() string {
		hash, _ := crypto.HashPassword(uuid.NewString())
		return hash
	})
)

// AuthUsecase decides logins and hands out sessions
type AuthUsecase struct {
	accounts  repositories.AccountRepository
	tokens    *TokenService
	notifier  *Notifier
	limiter   OTPRateLimiter
	issuer    SessionIssuer
	sessions  SessionStore
	otpPolicy entities.OTPLoginPolicy
	metrics   *metrics.Metrics
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(
	accounts repositories.AccountRepository,
	tokens *TokenService,
	notifier *Notifier,
	limiter OTPRateLimiter,
	issuer SessionIssuer,
	otpPolicy entities.OTPLoginPolicy,
	m *metrics.Metrics,
) *AuthUsecase {
	return &AuthUsecase{
		accounts:  accounts,
		tokens:    tokens,
		notifier:  notifier,
		limiter:   limiter,
		issuer:    issuer,
		otpPolicy: otpPolicy,
		metrics:   m,
	}
}

// WithSessionStore enables server side sessions for clients that ask for them
func (uc *AuthUsecase) WithSessionStore(store SessionStore) *AuthUsecase {
	uc.sessions = store
	return uc
}

// Login authenticates by phone and password. At least one channel must be verified.
func (uc *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	account, err := uc.accounts.GetByPhone(ctx, strings.TrimSpace(input.Phone))
	if err = uc.authenticate(account, err, input.Password, input.Role); err != nil {
		return nil, uc.fail(ctx, loginDirect, err)
	}
	if !account.HasVerifiedChannel() {
		return nil, uc.fail(ctx, loginDirect, domainerrors.ErrNotVerified)
	}

	resp, err := uc.issueSession(ctx, account, input.UseSession)
	if err != nil {
		return nil, err
	}
	uc.metrics.Login(loginDirect, "success")
	return resp, nil
}

// SendLoginOTP runs the credential checks and sends a fresh pair of login codes.
// Farmers and vets must also supply the phone stored on their account.
func (uc *AuthUsecase) SendLoginOTP(ctx context.Context, input *entities.SendLoginOTPInput) error {
	account, err := uc.accounts.GetByEmail(ctx, normalizeEmail(input.Email))
	if err = uc.authenticate(account, err, input.Password, input.Role); err != nil {
		return uc.fail(ctx, loginOTP, err)
	}

	withPhone := account.Role != entities.RoleAdmin
	if withPhone && strings.TrimSpace(input.Phone) != account.Phone {
		return uc.fail(ctx, loginOTP, domainerrors.ErrInvalidCredentials)
	}
	if uc.otpPolicy.RequireVerifiedChannel && !account.HasVerifiedChannel() {
		return uc.fail(ctx, loginOTP, domainerrors.ErrNotVerified)
	}
	if err := allow(ctx, uc.limiter, "login:"+account.ID.String()); err != nil {
		return err
	}

	otp, err := uc.tokens.IssueLoginOTP(ctx, account.ID, withPhone)
	if err != nil {
		return err
	}
	uc.notifier.SendLoginCodes(ctx, account.Email, account.Phone, otp.EmailCode, otp.PhoneCode)

	logger.Info(ctx, "Login OTP sent",
		zap.String("account_id", account.ID.String()),
		zap.Bool("phone_code", withPhone),
	)
	return nil
}

// VerifyLoginOTP checks the codes of the latest login OTP, consumes it and issues a session
func (uc *AuthUsecase) VerifyLoginOTP(ctx context.Context, input *entities.VerifyLoginOTPInput) (*entities.AuthResponse, error) {
	account, err := uc.accounts.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, uc.fail(ctx, loginOTP, domainerrors.ErrTokenNotFound)
		}
		return nil, err
	}
	// account state may have changed since the codes were sent
	if err := checkAccess(account, input.Role); err != nil {
		return nil, uc.fail(ctx, loginOTP, err)
	}
	if uc.otpPolicy.RequireVerifiedChannel && !account.HasVerifiedChannel() {
		return nil, uc.fail(ctx, loginOTP, domainerrors.ErrNotVerified)
	}

	otp, err := uc.tokens.LatestLoginOTP(ctx, account.ID)
	if err != nil {
		return nil, uc.fail(ctx, loginOTP, err)
	}
	if !codesEqual(otp.EmailCode, input.EmailCode) {
		return nil, uc.fail(ctx, loginOTP, domainerrors.ErrInvalidOTP)
	}
	phoneVerified := otp.HasPhoneCode() && codesEqual(otp.PhoneCode, input.PhoneCode)
	if uc.otpPolicy.RequirePhoneCode && otp.HasPhoneCode() && !phoneVerified {
		return nil, uc.fail(ctx, loginOTP, domainerrors.ErrInvalidOTP)
	}

	if err := uc.tokens.ConsumeLoginOTP(ctx, otp, true, phoneVerified); err != nil {
		return nil, uc.fail(ctx, loginOTP, err)
	}

	resp, err := uc.issueSession(ctx, account, input.UseSession)
	if err != nil {
		return nil, err
	}
	uc.metrics.Login(loginOTP, "success")
	return resp, nil
}

// RefreshToken exchanges a refresh token for a new pair after re-checking the account
func (uc *AuthUsecase) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := uc.issuer.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domainerrors.ErrUnauthorized
	}

	account, err := uc.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrUnauthorized
		}
		return nil, err
	}
	if err := checkAccess(account, account.Role); err != nil {
		return nil, err
	}

	return uc.issuer.GenerateTokenPair(account.ID, account.Email, string(account.Role))
}

// GetAccount returns the account by id
func (uc *AuthUsecase) GetAccount(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	return uc.accounts.GetByID(ctx, id)
}

// authenticate runs the shared precondition chain: credentials, active, role, approval
func (uc *AuthUsecase) authenticate(account *entities.Account, lookupErr error, password string, role entities.Role) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, domainerrors.ErrNotFound) {
			checkPassword(password, dummyPasswordHash())
			return domainerrors.ErrInvalidCredentials
		}
		return lookupErr
	}
	if !checkPassword(password, account.PasswordHash) {
		return domainerrors.ErrInvalidCredentials
	}
	return checkAccess(account, role)
}

// checkAccess applies the active flag, the role match and the approval gate
func checkAccess(account *entities.Account, role entities.Role) error {
	if !account.IsActive {
		// decline also deactivates; report the more specific reason
		if account.RequiresApproval() && account.Status == entities.StatusDeclined {
			return domainerrors.ErrDeclined
		}
		return domainerrors.ErrAccountInactive
	}
	if parsed, _ := entities.ParseRole(string(role)); parsed != account.Role {
		return domainerrors.ErrRoleMismatch
	}
	return approvalGate(account)
}

func approvalGate(account *entities.Account) error {
	if !account.RequiresApproval() {
		return nil
	}
	switch account.Status {
	case entities.StatusApproved:
		return nil
	case entities.StatusPending:
		return domainerrors.ErrPendingApproval
	case entities.StatusDeclined:
		return domainerrors.ErrDeclined
	default:
		return domainerrors.ErrNotApproved
	}
}

func (uc *AuthUsecase) issueSession(ctx context.Context, account *entities.Account, useSession bool) (*entities.AuthResponse, error) {
	pair, err := uc.issuer.GenerateTokenPair(account.ID, account.Email, string(account.Role))
	if err != nil {
		return nil, err
	}

	now := uc.tokens.Now()
	if err := uc.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		logger.Warn(ctx, "Failed to record last login", zap.String("account_id", account.ID.String()), zap.Error(err))
	}

	resp := &entities.AuthResponse{User: account.Summary()}
	if useSession && uc.sessions != nil {
		sessionID := uuid.NewString()
		data := &redis.SessionData{
			AccountID:    account.ID.String(),
			Role:         string(account.Role),
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}
		if err := uc.sessions.CreateSession(ctx, sessionID, data, uc.issuer.RefreshExpiry()); err != nil {
			logger.Error(ctx, "Failed to store session", zap.Error(err))
			return nil, domainerrors.ErrExternalDependency
		}
		resp.SessionID = sessionID
		return resp, nil
	}
	resp.AccessToken = pair.AccessToken
	resp.RefreshToken = pair.RefreshToken
	return resp, nil
}

func (uc *AuthUsecase) fail(ctx context.Context, variant string, err error) error {
	uc.metrics.Login(variant, outcomeLabel(err))
	if !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		logger.Debug(ctx, "Login rejected", zap.String("variant", variant), zap.Error(err))
	}
	return err
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domainerrors.ErrAccountInactive):
		return "inactive"
	case errors.Is(err, domainerrors.ErrRoleMismatch):
		return "role_mismatch"
	case errors.Is(err, domainerrors.ErrPendingApproval):
		return "pending"
	case errors.Is(err, domainerrors.ErrDeclined):
		return "declined"
	case errors.Is(err, domainerrors.ErrNotApproved):
		return "not_approved"
	case errors.Is(err, domainerrors.ErrNotVerified):
		return "not_verified"
	case errors.Is(err, domainerrors.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domainerrors.ErrInvalidOTP):
		return "invalid_otp"
	case errors.Is(err, domainerrors.ErrTokenNotFound), errors.Is(err, domainerrors.ErrTokenAlreadyUsed):
		return "otp_not_found"
	default:
		return "error"
	}
}

func codesEqual(stored, presented string) bool {
	presented = strings.TrimSpace(presented)
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
