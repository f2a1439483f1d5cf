package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is stored in the users table
type Account struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username         string     `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email            string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone            string     `gorm:"type:varchar(20);uniqueIndex;not null"`
	FullName         string     `gorm:"type:varchar(255);not null"`
	Address          string     `gorm:"type:text;not null"`
	PasswordHash     string     `gorm:"type:varchar(255);not null"`
	Role             string     `gorm:"type:varchar(10);not null;index"`
	Status           string     `gorm:"type:varchar(10);not null;index"`
	FarmName         *string    `gorm:"type:varchar(255);uniqueIndex"`
	NIDPhoto         *string    `gorm:"column:nid_photo;type:varchar(512)"`
	Specialization   *string    `gorm:"type:varchar(255)"`
	CertificatePhoto *string    `gorm:"type:varchar(512)"`
	IsEmailVerified  bool       `gorm:"not null"`
	IsPhoneVerified  bool       `gorm:"not null"`
	IsActive         bool       `gorm:"not null"`
	LastLoginAt      *time.Time `gorm:"type:timestamp"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Account) TableName() string {
	return "users"
}
