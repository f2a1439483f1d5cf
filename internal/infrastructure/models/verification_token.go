package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenBase is the shared layout of the single-code token tables
type TokenBase struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Code      string    `gorm:"type:varchar(64);not null"`
	Used      bool      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type EmailVerificationToken struct {
	TokenBase `gorm:"embedded"`
	User      Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}

type PhoneOTP struct {
	TokenBase `gorm:"embedded"`
	User      Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (PhoneOTP) TableName() string {
	return "phone_otps"
}

type PasswordResetToken struct {
	TokenBase `gorm:"embedded"`
	User      Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// LoginOTP holds both codes of one OTP login attempt. PhoneCode is NULL for admins.
type LoginOTP struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	EmailCode       string    `gorm:"type:varchar(6);not null"`
	PhoneCode       *string   `gorm:"type:varchar(6)"`
	IsEmailVerified bool      `gorm:"not null"`
	IsPhoneVerified bool      `gorm:"not null"`
	Used            bool      `gorm:"not null;index"`
	CreatedAt       time.Time `gorm:"not null;index"`
	User            Account   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (LoginOTP) TableName() string {
	return "login_otps"
}

// All returns every model managed by AutoMigrate, parents first
func All() []interface{} {
	return []interface{}{
		&Account{},
		&EmailVerificationToken{},
		&PhoneOTP{},
		&PasswordResetToken{},
		&LoginOTP{},
	}
}
