package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	domainRepos "farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/internal/infrastructure/models"
	"farmvet-auth.backend/pkg/utils"
)

// AccountRepository implements account data operations
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

var uniqueAccountFields = []domainRepos.AccountField{
	domainRepos.AccountFieldUsername,
	domainRepos.AccountFieldEmail,
	domainRepos.AccountFieldPhone,
	domainRepos.AccountFieldFarmName,
}

// Create inserts a new account. Unique violations surface as DuplicateKeyError.
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	if account.ID == uuid.Nil {
		account.ID = utils.GenerateUUIDv7()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = account.CreatedAt

	m := toAccountModel(account)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if field, ok := duplicateField(err); ok {
			return &domainerrors.DuplicateKeyError{Field: field}
		}
		return err
	}
	return nil
}

// GetByID gets an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	return r.getBy(ctx, "id = ?", id)
}

// GetByEmail gets an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	return r.getBy(ctx, "email = ?", email)
}

// GetByPhone gets an account by phone
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*entities.Account, error) {
	return r.getBy(ctx, "phone = ?", phone)
}

func (r *AccountRepository) getBy(ctx context.Context, query string, arg interface{}) (*entities.Account, error) {
	var m models.Account
	if err := GetDB(ctx, r.db).WithContext(ctx).Where(query, arg).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toAccountEntity(&m), nil
}

// ExistsBy reports whether an account with field = value exists
func (r *AccountRepository) ExistsBy(ctx context.Context, field domainRepos.AccountField, value string) (bool, error) {
	if !isUniqueAccountField(field) {
		return false, fmt.Errorf("unsupported account field %q", field)
	}
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.Account{}).
		Where(string(field)+" = ?", value).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus sets the approval status and active flag together
func (r *AccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.ApprovalStatus, isActive bool) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":    string(status),
		"is_active": isActive,
	})
}

// SetEmailVerified marks the email channel verified
func (r *AccountRepository) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{"is_email_verified": true})
}

// SetPhoneVerified marks the phone channel verified
func (r *AccountRepository) SetPhoneVerified(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{"is_phone_verified": true})
}

// UpdatePassword replaces the stored password hash
func (r *AccountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}

// TouchLastLogin records a successful login
func (r *AccountRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"last_login_at": at.UTC()})
}

func (r *AccountRepository) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// List returns accounts matching filter, newest first
func (r *AccountRepository) List(ctx context.Context, filter entities.AccountFilter, pagination utils.PaginationParams) ([]*entities.Account, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Account{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Role != "" {
		query = query.Where("role = ?", string(filter.Role))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var rows []models.Account
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*entities.Account, 0, len(rows))
	for i := range rows {
		items = append(items, toAccountEntity(&rows[i]))
	}
	return items, total, nil
}

func isUniqueAccountField(field domainRepos.AccountField) bool {
	for _, f := range uniqueAccountFields {
		if f == field {
			return true
		}
	}
	return false
}

// duplicateField extracts the offending column from a unique violation
// raised by postgres (SQLSTATE 23505) or sqlite.
func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return "", false
		}
		return fieldFromConstraint(pgErr.ConstraintName), true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return "", false
	}
	idx := strings.Index(msg, "users.")
	if idx < 0 {
		return "", true
	}
	col := msg[idx+len("users."):]
	if end := strings.IndexAny(col, " ,"); end >= 0 {
		col = col[:end]
	}
	if isUniqueAccountField(domainRepos.AccountField(col)) {
		return col, true
	}
	return "", true
}

// fieldFromConstraint handles both idx_users_<col> and users_<col>_key names
func fieldFromConstraint(name string) string {
	for _, f := range uniqueAccountFields {
		col := string(f)
		if strings.HasSuffix(name, "_"+col) || strings.HasSuffix(name, "_"+col+"_key") {
			return col
		}
	}
	return ""
}

func toAccountModel(a *entities.Account) *models.Account {
	return &models.Account{
		ID:               a.ID,
		Username:         a.Username,
		Email:            a.Email,
		Phone:            a.Phone,
		FullName:         a.FullName,
		Address:          a.Address,
		PasswordHash:     a.PasswordHash,
		Role:             string(a.Role),
		Status:           string(a.Status),
		FarmName:         a.FarmName.Ptr(),
		NIDPhoto:         a.NIDPhoto.Ptr(),
		Specialization:   a.Specialization.Ptr(),
		CertificatePhoto: a.CertificatePhoto.Ptr(),
		IsEmailVerified:  a.EmailVerified,
		IsPhoneVerified:  a.PhoneVerified,
		IsActive:         a.IsActive,
		LastLoginAt:      a.LastLoginAt.Ptr(),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toAccountEntity(m *models.Account) *entities.Account {
	return &entities.Account{
		ID:               m.ID,
		Username:         m.Username,
		Email:            m.Email,
		Phone:            m.Phone,
		FullName:         m.FullName,
		Address:          m.Address,
		PasswordHash:     m.PasswordHash,
		Role:             entities.Role(m.Role),
		Status:           entities.ApprovalStatus(m.Status),
		FarmName:         null.StringFromPtr(m.FarmName),
		NIDPhoto:         null.StringFromPtr(m.NIDPhoto),
		Specialization:   null.StringFromPtr(m.Specialization),
		CertificatePhoto: null.StringFromPtr(m.CertificatePhoto),
		EmailVerified:    m.IsEmailVerified,
		PhoneVerified:    m.IsPhoneVerified,
		IsActive:         m.IsActive,
		LastLoginAt:      null.TimeFromPtr(m.LastLoginAt),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
