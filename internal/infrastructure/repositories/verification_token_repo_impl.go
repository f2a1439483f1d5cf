package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/infrastructure/models"
	"farmvet-auth.backend/pkg/utils"
)

var tokenTables = map[entities.TokenPurpose]string{
	entities.PurposeEmailVerification: models.EmailVerificationToken{}.TableName(),
	entities.PurposePhoneVerification: models.PhoneOTP{}.TableName(),
	entities.PurposePasswordReset:     models.PasswordResetToken{}.TableName(),
}

func tableFor(purpose entities.TokenPurpose) (string, error) {
	table, ok := tokenTables[purpose]
	if !ok {
		return "", fmt.Errorf("no token table for purpose %q", purpose)
	}
	return table, nil
}

// TokenRepository implements single-code token storage
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create persists a token in the table of its purpose
func (r *TokenRepository) Create(ctx context.Context, token *entities.VerificationToken) error {
	table, err := tableFor(token.Purpose)
	if err != nil {
		return err
	}
	if token.ID == uuid.Nil {
		token.ID = utils.GenerateUUIDv7()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	m := &models.TokenBase{
		ID:        token.ID,
		UserID:    token.AccountID,
		Code:      token.Code,
		Used:      token.Used,
		CreatedAt: token.CreatedAt.UTC(),
	}
	return GetDB(ctx, r.db).WithContext(ctx).Table(table).Create(m).Error
}

// FindLatestUnused selects the newest unused token with a matching code
func (r *TokenRepository) FindLatestUnused(ctx context.Context, accountID uuid.UUID, purpose entities.TokenPurpose, code string) (*entities.VerificationToken, error) {
	table, err := tableFor(purpose)
	if err != nil {
		return nil, err
	}
	var m models.TokenBase
	err = GetDB(ctx, r.db).WithContext(ctx).
		Table(table).
		Where("user_id = ? AND code = ? AND used = ?", accountID, code, false).
		Order("created_at DESC").
		Limit(1).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &entities.VerificationToken{
		ID:        m.ID,
		AccountID: m.UserID,
		Purpose:   purpose,
		Code:      m.Code,
		Used:      m.Used,
		CreatedAt: m.CreatedAt,
	}, nil
}

// MarkUsed is a conditional update; only one concurrent caller can win
func (r *TokenRepository) MarkUsed(ctx context.Context, purpose entities.TokenPurpose, id uuid.UUID) error {
	table, err := tableFor(purpose)
	if err != nil {
		return err
	}
	result := GetDB(ctx, r.db).WithContext(ctx).
		Table(table).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTokenAlreadyUsed
	}
	return nil
}

// DeleteStale removes used tokens and tokens created before olderThan
func (r *TokenRepository) DeleteStale(ctx context.Context, purpose entities.TokenPurpose, olderThan time.Time) (int64, error) {
	table, err := tableFor(purpose)
	if err != nil {
		return 0, err
	}
	result := GetDB(ctx, r.db).WithContext(ctx).
		Table(table).
		Where("used = ? OR created_at < ?", true, olderThan.UTC()).
		Delete(&models.TokenBase{})
	return result.RowsAffected, result.Error
}

// LoginOTPRepository implements login OTP storage
type LoginOTPRepository struct {
	db *gorm.DB
}

// NewLoginOTPRepository creates a new login OTP repository
func NewLoginOTPRepository(db *gorm.DB) *LoginOTPRepository {
	return &LoginOTPRepository{db: db}
}

// Create persists a login OTP
func (r *LoginOTPRepository) Create(ctx context.Context, otp *entities.LoginOTP) error {
	if otp.ID == uuid.Nil {
		otp.ID = utils.GenerateUUIDv7()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}
	m := &models.LoginOTP{
		ID:              otp.ID,
		UserID:          otp.AccountID,
		EmailCode:       otp.EmailCode,
		IsEmailVerified: otp.EmailVerified,
		IsPhoneVerified: otp.PhoneVerified,
		Used:            otp.Used,
		CreatedAt:       otp.CreatedAt.UTC(),
	}
	if otp.PhoneCode != "" {
		code := otp.PhoneCode
		m.PhoneCode = &code
	}
	return GetDB(ctx, r.db).WithContext(ctx).Omit("User").Create(m).Error
}

// FindLatestUnused returns the newest unused login OTP of the account
func (r *LoginOTPRepository) FindLatestUnused(ctx context.Context, accountID uuid.UUID) (*entities.LoginOTP, error) {
	var m models.LoginOTP
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND used = ?", accountID, false).
		Order("created_at DESC").
		Limit(1).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	otp := &entities.LoginOTP{
		ID:            m.ID,
		AccountID:     m.UserID,
		EmailCode:     m.EmailCode,
		EmailVerified: m.IsEmailVerified,
		PhoneVerified: m.IsPhoneVerified,
		Used:          m.Used,
		CreatedAt:     m.CreatedAt,
	}
	if m.PhoneCode != nil {
		otp.PhoneCode = *m.PhoneCode
	}
	return otp, nil
}

// MarkUsed consumes the OTP and records which codes were proven
func (r *LoginOTPRepository) MarkUsed(ctx context.Context, id uuid.UUID, emailVerified, phoneVerified bool) error {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.LoginOTP{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]interface{}{
			"used":              true,
			"is_email_verified": emailVerified,
			"is_phone_verified": phoneVerified,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTokenAlreadyUsed
	}
	return nil
}

// DeleteStale removes used OTPs and OTPs created before olderThan
func (r *LoginOTPRepository) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Where("used = ? OR created_at < ?", true, olderThan.UTC()).
		Delete(&models.LoginOTP{})
	return result.RowsAffected, result.Error
}
