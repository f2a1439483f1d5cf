package usecases_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/pkg/redis"
	"farmvet-auth.backend/pkg/utils"
)

// MockAccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *entities.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByPhone(ctx context.Context, phone string) (*entities.Account, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) ExistsBy(ctx context.Context, field repositories.AccountField, value string) (bool, error) {
	args := m.Called(ctx, field, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.ApprovalStatus, isActive bool) error {
	args := m.Called(ctx, id, status, isActive)
	return args.Error(0)
}

func (m *MockAccountRepository) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) SetPhoneVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccountRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAccountRepository) List(ctx context.Context, filter entities.AccountFilter, pagination utils.PaginationParams) ([]*entities.Account, int64, error) {
	args := m.Called(ctx, filter, pagination)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*entities.Account), args.Get(1).(int64), args.Error(2)
}

// MockTokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *entities.VerificationToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) FindLatestUnused(ctx context.Context, accountID uuid.UUID, purpose entities.TokenPurpose, code string) (*entities.VerificationToken, error) {
	args := m.Called(ctx, accountID, purpose, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VerificationToken), args.Error(1)
}

func (m *MockTokenRepository) MarkUsed(ctx context.Context, purpose entities.TokenPurpose, id uuid.UUID) error {
	args := m.Called(ctx, purpose, id)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteStale(ctx context.Context, purpose entities.TokenPurpose, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, purpose, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockLoginOTPRepository
type MockLoginOTPRepository struct {
	mock.Mock
}

func (m *MockLoginOTPRepository) Create(ctx context.Context, otp *entities.LoginOTP) error {
	args := m.Called(ctx, otp)
	return args.Error(0)
}

func (m *MockLoginOTPRepository) FindLatestUnused(ctx context.Context, accountID uuid.UUID) (*entities.LoginOTP, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LoginOTP), args.Error(1)
}

func (m *MockLoginOTPRepository) MarkUsed(ctx context.Context, id uuid.UUID, emailVerified, phoneVerified bool) error {
	args := m.Called(ctx, id, emailVerified, phoneVerified)
	return args.Error(0)
}

func (m *MockLoginOTPRepository) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockUnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// MockRateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockDocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Validate(doc *entities.Document) error {
	args := m.Called(doc)
	return args.Error(0)
}

func (m *MockDocumentStore) Save(ctx context.Context, accountID uuid.UUID, kind string, doc *entities.Document) (string, error) {
	args := m.Called(ctx, accountID, kind, doc)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// MockSessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) CreateSession(ctx context.Context, sessionID string, data *redis.SessionData, expiration time.Duration) error {
	args := m.Called(ctx, sessionID, data, expiration)
	return args.Error(0)
}

type sentMessage struct {
	Channel entities.NotificationChannel
	To      string
	Subject string
	Body    string
}

// recordingDispatcher captures every message handed to it
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (d *recordingDispatcher) SendEmail(_ context.Context, to, subject, body string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentMessage{Channel: entities.ChannelEmail, To: to, Subject: subject, Body: body})
	return uuid.NewString()
}

func (d *recordingDispatcher) SendSMS(_ context.Context, to, body string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentMessage{Channel: entities.ChannelSMS, To: to, Body: body})
	return uuid.NewString()
}

func (d *recordingDispatcher) messages() []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentMessage(nil), d.sent...)
}
