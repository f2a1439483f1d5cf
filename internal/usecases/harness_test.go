package usecases_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/internal/infrastructure/datasources/postgres"
	"farmvet-auth.backend/internal/infrastructure/ratelimit"
	"farmvet-auth.backend/internal/infrastructure/repositories"
	"farmvet-auth.backend/internal/infrastructure/storage"
	"farmvet-auth.backend/internal/usecases"
	"farmvet-auth.backend/pkg/crypto"
	"farmvet-auth.backend/pkg/jwt"
	"farmvet-auth.backend/pkg/metrics"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness wires the usecases to real gorm repositories on an in-memory sqlite database
type harness struct {
	db         *gorm.DB
	clock      *testClock
	dispatcher *recordingDispatcher
	accounts   *repositories.AccountRepository
	tokenRepo  *repositories.TokenRepository
	otpRepo    *repositories.LoginOTPRepository
	tokens     *usecases.TokenService

	registration *usecases.RegistrationUsecase
	verification *usecases.VerificationUsecase
	admin        *usecases.AdminUsecase
	auth         *usecases.AuthUsecase
	reset        *usecases.PasswordResetUsecase
}

func newHarness(t *testing.T, otpPolicy entities.OTPLoginPolicy) *harness {
	t.Helper()
	crypto.SetCost(bcrypt.MinCost)

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.Migrate(db))

	h := &harness{
		db:         db,
		clock:      &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		dispatcher: &recordingDispatcher{},
		accounts:   repositories.NewAccountRepository(db),
		tokenRepo:  repositories.NewTokenRepository(db),
		otpRepo:    repositories.NewLoginOTPRepository(db),
	}
	policy := entities.DefaultTokenPolicy()
	m := metrics.New()
	uow := repositories.NewUnitOfWork(db)
	h.tokens = usecases.NewTokenService(h.tokenRepo, h.otpRepo, policy, m).WithClock(h.clock.Now)
	notifier := usecases.NewNotifier(h.dispatcher, usecases.SMSPolicy{EmailFallback: true}, policy)
	limiter := ratelimit.NewMemoryLimiter(time.Minute, 100)
	docs := storage.NewFileStore(t.TempDir(), storage.DefaultMaxBytes)
	issuer := jwt.NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)

	h.registration = usecases.NewRegistrationUsecase(h.accounts, uow, h.tokens, notifier, docs)
	h.verification = usecases.NewVerificationUsecase(h.accounts, uow, h.tokens, notifier, limiter)
	h.admin = usecases.NewAdminUsecase(h.accounts)
	h.auth = usecases.NewAuthUsecase(h.accounts, h.tokens, notifier, limiter, issuer, otpPolicy, m)
	h.reset = usecases.NewPasswordResetUsecase(h.accounts, uow, h.tokens, notifier, limiter)
	return h
}

func farmerInput() *entities.RegisterInput {
	return &entities.RegisterInput{
		Username: "f1",
		Email:    "f1@x.com",
		FullName: "Farmer One",
		Address:  "Kathmandu",
		Password: "Str0ng!Pass",
		Phone:    "+9771",
		Role:     entities.RoleFarmer,
		FarmName: "Green Acres",
		NIDPhoto: &entities.Document{Filename: "nid.jpg", Content: []byte("jpeg-bytes")},
	}
}

func vetInput() *entities.RegisterInput {
	return &entities.RegisterInput{
		Username:         "v1",
		Email:            "v1@x.com",
		FullName:         "Vet One",
		Address:          "Pokhara",
		Password:         "Str0ng!Pass",
		Phone:            "+9772",
		Role:             entities.RoleVet,
		Specialization:   "Cattle",
		CertificatePhoto: &entities.Document{Filename: "cert.png", Content: []byte("png-bytes")},
	}
}

func (h *harness) createAdmin(t *testing.T) *entities.Account {
	t.Helper()
	hash, err := crypto.HashPassword("Adm1n!Secret")
	require.NoError(t, err)
	admin := &entities.Account{
		Username:      "root",
		Email:         "admin@x.com",
		Phone:         "+9770",
		FullName:      "Site Admin",
		Address:       "HQ",
		PasswordHash:  hash,
		Role:          entities.RoleAdmin,
		Status:        entities.StatusApproved,
		EmailVerified: true,
		PhoneVerified: true,
		IsActive:      true,
	}
	require.NoError(t, h.accounts.Create(context.Background(), admin))
	return admin
}

func (h *harness) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Table(table).Count(&n).Error)
	return n
}

// latestCode returns the newest unused code of purpose for the account
func (h *harness) latestCode(t *testing.T, accountID fmt.Stringer, table string) string {
	t.Helper()
	var codes []string
	require.NoError(t, h.db.Table(table).
		Where("user_id = ? AND used = ?", accountID.String(), false).
		Order("created_at DESC").
		Limit(1).
		Pluck("code", &codes).Error)
	require.Len(t, codes, 1)
	return codes[0]
}

func (h *harness) latestLoginOTP(t *testing.T, accountID fmt.Stringer) (emailCode, phoneCode string) {
	t.Helper()
	var row struct {
		EmailCode string
		PhoneCode *string
	}
	require.NoError(t, h.db.Table("login_otps").
		Select("email_code, phone_code").
		Where("user_id = ? AND used = ?", accountID.String(), false).
		Order("created_at DESC").
		Limit(1).
		Scan(&row).Error)
	require.NotEmpty(t, row.EmailCode)
	if row.PhoneCode != nil {
		phoneCode = *row.PhoneCode
	}
	return row.EmailCode, phoneCode
}
