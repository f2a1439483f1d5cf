package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/pkg/crypto"
	"farmvet-auth.backend/pkg/logger"
	"farmvet-auth.backend/pkg/utils"
)

// Document kinds accepted at registration
const (
	DocumentNID         = "nid"
	DocumentCertificate = "certificate"
)

var (
	hashPassword   = crypto.HashPassword
	fieldValidator = validator.New()
)

// fieldLimits matches the column widths of the users table
var fieldLimits = []struct {
	field string
	max   int
	value func(in *entities.RegisterInput) string
}{
	{"username", 150, func(in *entities.RegisterInput) string { return in.Username }},
	{"email", 255, func(in *entities.RegisterInput) string { return in.Email }},
	{"phone", 20, func(in *entities.RegisterInput) string { return in.Phone }},
	{"full_name", 255, func(in *entities.RegisterInput) string { return in.FullName }},
	{"farm_name", 255, func(in *entities.RegisterInput) string { return in.FarmName }},
	{"specialization", 255, func(in *entities.RegisterInput) string { return in.Specialization }},
}

// fieldRule is one role-conditioned required field
type fieldRule struct {
	field   string
	message string
	present func(in *entities.RegisterInput) bool
}

// roleRules lists the extra fields each self-registering role must supply, in check order
var roleRules = map[entities.Role][]fieldRule{
	entities.RoleFarmer: {
		{"farm_name", "Farm name is required for farmers.", func(in *entities.RegisterInput) bool { return in.FarmName != "" }},
		{"nid_photo", "NID photo is required for farmers.", func(in *entities.RegisterInput) bool { return in.NIDPhoto != nil }},
	},
	entities.RoleVet: {
		{"specialization", "Specialization is required for vets.", func(in *entities.RegisterInput) bool { return in.Specialization != "" }},
		{"certificate_photo", "Certificate photo is required for vets.", func(in *entities.RegisterInput) bool { return in.CertificatePhoto != nil }},
	},
}

var duplicateMessages = map[string]string{
	string(repositories.AccountFieldUsername): "An account with this username already exists.",
	string(repositories.AccountFieldEmail):    "An account with this email already exists.",
	string(repositories.AccountFieldPhone):    "An account with this phone already exists.",
	string(repositories.AccountFieldFarmName): "An account with this farm name already exists.",
}

// RegistrationUsecase creates self-registered farmer and vet accounts
type RegistrationUsecase struct {
	accounts  repositories.AccountRepository
	uow       repositories.UnitOfWork
	tokens    *TokenService
	notifier  *Notifier
	documents DocumentStore
}

// NewRegistrationUsecase creates a new registration usecase
func NewRegistrationUsecase(
	accounts repositories.AccountRepository,
	uow repositories.UnitOfWork,
	tokens *TokenService,
	notifier *Notifier,
	documents DocumentStore,
) *RegistrationUsecase {
	return &RegistrationUsecase{
		accounts:  accounts,
		uow:       uow,
		tokens:    tokens,
		notifier:  notifier,
		documents: documents,
	}
}

// Register validates input, creates the account with its two verification
// tokens in one transaction and sends the codes once committed.
func (uc *RegistrationUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.Account, error) {
	normalizeRegisterInput(input)
	if err := uc.validate(ctx, input); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	account := &entities.Account{
		ID:           utils.GenerateUUIDv7(),
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		FullName:     input.FullName,
		Address:      input.Address,
		PasswordHash: passwordHash,
		Role:         input.Role,
		Status:       entities.StatusPending,
		IsActive:     true,
	}
	if input.FarmName != "" {
		account.FarmName = null.StringFrom(input.FarmName)
	}
	if input.Specialization != "" {
		account.Specialization = null.StringFrom(input.Specialization)
	}

	saved, err := uc.storeDocuments(ctx, account, input)
	if err != nil {
		return nil, err
	}

	var emailToken, phoneOTP *entities.VerificationToken
	err = uc.uow.Do(ctx, func(txCtx context.Context) error {
		if err := uc.accounts.Create(txCtx, account); err != nil {
			return err
		}
		var err error
		if emailToken, err = uc.tokens.Issue(txCtx, account.ID, entities.PurposeEmailVerification); err != nil {
			return err
		}
		if phoneOTP, err = uc.tokens.Issue(txCtx, account.ID, entities.PurposePhoneVerification); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		uc.discardDocuments(ctx, saved)
		var dup *domainerrors.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, duplicateValidationError(dup.Field)
		}
		return nil, fmt.Errorf("register account: %w", err)
	}

	uc.notifier.SendEmailVerification(ctx, account.Email, emailToken.Code)
	uc.notifier.SendPhoneVerification(ctx, account.Phone, account.Email, phoneOTP.Code)

	logger.Info(ctx, "Account registered",
		zap.String("account_id", account.ID.String()),
		zap.String("role", string(account.Role)),
	)
	return account, nil
}

func normalizeRegisterInput(in *entities.RegisterInput) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Address = strings.TrimSpace(in.Address)
	in.FarmName = strings.TrimSpace(in.FarmName)
	in.Specialization = strings.TrimSpace(in.Specialization)
	if role, ok := entities.ParseRole(string(in.Role)); ok {
		in.Role = role
	}
}

// validate runs the checks in order and stops at the first failing stage
func (uc *RegistrationUsecase) validate(ctx context.Context, in *entities.RegisterInput) error {
	verr := &domainerrors.ValidationError{}
	required := []struct{ field, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"phone", in.Phone},
		{"full_name", in.FullName},
		{"password", in.Password},
	}
	for _, r := range required {
		if r.value == "" {
			verr.Add(r.field, "This field is required.")
		}
	}
	if verr.HasErrors() {
		return verr
	}
	if ferr := formatErrors(in); ferr.HasErrors() {
		return ferr
	}

	if in.Address == "" {
		return domainerrors.NewValidationError("address", "Address is required.")
	}

	rules, ok := roleRules[in.Role]
	if !ok {
		if in.Role == entities.RoleAdmin {
			return domainerrors.NewValidationError("role", "Admin accounts cannot be self-registered.")
		}
		return domainerrors.NewValidationError("role", fmt.Sprintf("%q is not a valid choice.", in.Role))
	}
	for _, rule := range rules {
		if !rule.present(in) {
			return domainerrors.NewValidationError(rule.field, rule.message)
		}
	}

	for field, doc := range map[string]*entities.Document{"nid_photo": in.NIDPhoto, "certificate_photo": in.CertificatePhoto} {
		if doc == nil {
			continue
		}
		if err := uc.documents.Validate(doc); err != nil {
			verr.Add(field, err.Error())
		}
	}
	if verr.HasErrors() {
		return verr
	}

	if err := CheckStrength(in.Password, in.Username, in.Email, in.FullName); err != nil {
		return err
	}

	return uc.checkUnique(ctx, in)
}

// formatErrors reports oversized fields and a malformed email together
func formatErrors(in *entities.RegisterInput) *domainerrors.ValidationError {
	verr := &domainerrors.ValidationError{}
	for _, limit := range fieldLimits {
		if err := fieldValidator.Var(limit.value(in), "max="+strconv.Itoa(limit.max)); err != nil {
			verr.Add(limit.field, fmt.Sprintf("Ensure this field has no more than %d characters.", limit.max))
		}
	}
	if err := fieldValidator.Var(in.Email, "email"); err != nil {
		verr.Add("email", "Enter a valid email address.")
	}
	return verr
}

// checkUnique reports every taken unique field. Storage constraints still catch races.
func (uc *RegistrationUsecase) checkUnique(ctx context.Context, in *entities.RegisterInput) error {
	checks := []struct {
		field repositories.AccountField
		value string
	}{
		{repositories.AccountFieldUsername, in.Username},
		{repositories.AccountFieldEmail, in.Email},
		{repositories.AccountFieldPhone, in.Phone},
		{repositories.AccountFieldFarmName, in.FarmName},
	}
	verr := &domainerrors.ValidationError{}
	for _, p := range checks {
		if p.value == "" {
			continue
		}
		exists, err := uc.accounts.ExistsBy(ctx, p.field, p.value)
		if err != nil {
			return err
		}
		if exists {
			verr.Add(string(p.field), duplicateMessages[string(p.field)])
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (uc *RegistrationUsecase) storeDocuments(ctx context.Context, account *entities.Account, in *entities.RegisterInput) ([]string, error) {
	var saved []string
	store := func(kind string, doc *entities.Document, target *null.String) error {
		if doc == nil {
			return nil
		}
		path, err := uc.documents.Save(ctx, account.ID, kind, doc)
		if err != nil {
			return fmt.Errorf("store %s document: %w", kind, err)
		}
		saved = append(saved, path)
		*target = null.StringFrom(path)
		return nil
	}
	if err := store(DocumentNID, in.NIDPhoto, &account.NIDPhoto); err != nil {
		uc.discardDocuments(ctx, saved)
		return nil, err
	}
	if err := store(DocumentCertificate, in.CertificatePhoto, &account.CertificatePhoto); err != nil {
		uc.discardDocuments(ctx, saved)
		return nil, err
	}
	return saved, nil
}

func (uc *RegistrationUsecase) discardDocuments(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := uc.documents.Delete(ctx, path); err != nil {
			logger.Warn(ctx, "Failed to remove stored document", zap.String("path", path), zap.Error(err))
		}
	}
}

func duplicateValidationError(field string) *domainerrors.ValidationError {
	msg, ok := duplicateMessages[field]
	if !ok {
		field = "non_field_errors"
		msg = "An account with these details already exists."
	}
	return domainerrors.NewValidationError(field, msg)
}
