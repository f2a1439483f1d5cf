package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Role represents account roles
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleVet    Role = "vet"
	RoleAdmin  Role = "admin"
)

// ParseRole normalizes a role string and reports whether it is known
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleFarmer, RoleVet, RoleAdmin:
		return role, true
	}
	return role, false
}

// ApprovalStatus represents the admin review state of an account
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusDeclined ApprovalStatus = "declined"
)

// Account represents a registered user
type Account struct {
	ID               uuid.UUID      `json:"id"`
	Username         string         `json:"username"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	FullName         string         `json:"full_name"`
	Address          string         `json:"address"`
	PasswordHash     string         `json:"-"`
	Role             Role           `json:"role"`
	Status           ApprovalStatus `json:"status"`
	FarmName         null.String    `json:"farm_name"`
	NIDPhoto         null.String    `json:"nid_photo"`
	Specialization   null.String    `json:"specialization"`
	CertificatePhoto null.String    `json:"certificate_photo"`
	EmailVerified    bool           `json:"email_verified"`
	PhoneVerified    bool           `json:"phone_verified"`
	IsActive         bool           `json:"is_active"`
	LastLoginAt      null.Time      `json:"last_login_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// RequiresApproval reports whether the approval gate applies to the account
func (a *Account) RequiresApproval() bool {
	return a.Role != RoleAdmin
}

// HasVerifiedChannel reports whether email or phone has been verified
func (a *Account) HasVerifiedChannel() bool {
	return a.EmailVerified || a.PhoneVerified
}

// Summary returns the public view of the account
func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		FullName: a.FullName,
		Role:     a.Role,
	}
}

// AccountSummary is the user block returned after a successful login
type AccountSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     Role      `json:"role"`
}

// Document is an uploaded identity or certificate image
type Document struct {
	Filename string
	Size     int64
	Content  []byte
}

// RegisterInput represents input for account registration
type RegisterInput struct {
	Username         string
	Email            string
	FullName         string
	Address          string
	Password         string
	Phone            string
	Role             Role
	FarmName         string
	NIDPhoto         *Document
	Specialization   string
	CertificatePhoto *Document
}

// AccountFilter narrows the admin account listing
type AccountFilter struct {
	Status ApprovalStatus `form:"status"`
	Role   Role           `form:"role"`
	Search string         `form:"search"`
}
