package entities

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose scopes a single-use secret to one use case
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePhoneVerification TokenPurpose = "phone_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
	PurposeLoginOTP          TokenPurpose = "login_otp"
)

// VerificationToken is a single-code, single-use secret bound to an account
type VerificationToken struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Purpose   TokenPurpose
	Code      string
	Used      bool
	CreatedAt time.Time
}

// IsExpired reports whether ttl has elapsed since creation
func (t *VerificationToken) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.After(t.CreatedAt.Add(ttl))
}

// LoginOTP holds the two codes issued for one OTP login attempt.
// PhoneCode is empty for admin accounts.
type LoginOTP struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	EmailCode     string
	PhoneCode     string
	EmailVerified bool
	PhoneVerified bool
	Used          bool
	CreatedAt     time.Time
}

// IsExpired reports whether ttl has elapsed since creation
func (o *LoginOTP) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.After(o.CreatedAt.Add(ttl))
}

// HasPhoneCode reports whether a phone code was issued with this OTP
func (o *LoginOTP) HasPhoneCode() bool {
	return o.PhoneCode != ""
}

// TokenPolicy holds the time-to-live of every token kind
type TokenPolicy struct {
	EmailTTL    time.Duration
	PhoneTTL    time.Duration
	ResetTTL    time.Duration
	LoginOTPTTL time.Duration
}

// DefaultTokenPolicy returns the canonical ttls
func DefaultTokenPolicy() TokenPolicy {
	return TokenPolicy{
		EmailTTL:    10 * time.Minute,
		PhoneTTL:    10 * time.Minute,
		ResetTTL:    30 * time.Minute,
		LoginOTPTTL: 10 * time.Minute,
	}
}

// TTL returns the lifetime for purpose, falling back to the default policy for zero values
func (p TokenPolicy) TTL(purpose TokenPurpose) time.Duration {
	def := DefaultTokenPolicy()
	pick := func(v, fallback time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return fallback
	}
	switch purpose {
	case PurposeEmailVerification:
		return pick(p.EmailTTL, def.EmailTTL)
	case PurposePhoneVerification:
		return pick(p.PhoneTTL, def.PhoneTTL)
	case PurposePasswordReset:
		return pick(p.ResetTTL, def.ResetTTL)
	case PurposeLoginOTP:
		return pick(p.LoginOTPTTL, def.LoginOTPTTL)
	}
	return 0
}

// OTPLoginPolicy controls the optional checks of the OTP login variant.
//
// RequirePhoneCode enforces the phone code at verification time for accounts
// that were sent one. RequireVerifiedChannel additionally applies the
// OR-verification rule of the direct login; when false a fresh OTP proof is
// enough on its own.
type OTPLoginPolicy struct {
	RequirePhoneCode       bool
	RequireVerifiedChannel bool
}
