package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/pkg/utils"
)

// AccountField names a unique account column that can be checked for existence
type AccountField string

const (
	AccountFieldUsername AccountField = "username"
	AccountFieldEmail    AccountField = "email"
	AccountFieldPhone    AccountField = "phone"
	AccountFieldFarmName AccountField = "farm_name"
)

// AccountRepository defines account data operations
type AccountRepository interface {
	Create(ctx context.Context, account *entities.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	GetByEmail(ctx context.Context, email string) (*entities.Account, error)
	GetByPhone(ctx context.Context, phone string) (*entities.Account, error)
	ExistsBy(ctx context.Context, field AccountField, value string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.ApprovalStatus, isActive bool) error
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
	SetPhoneVerified(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, filter entities.AccountFilter, pagination utils.PaginationParams) ([]*entities.Account, int64, error)
}
