package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/coursemind/go-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockIdentity implements auth.Identity
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) SubscriptionStatus() auth.SubscriptionStatus {
	args := m.Called()
	return args.String(0)
}

// MockMessenger implements auth.Messenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) Send(ctx context.Context, recipient, subject, body string) error {
	args := m.Called(ctx, recipient, subject, body)
	return args.Error(0)
}

// MockSubscriptionProvider implements auth.SubscriptionProvider
type MockSubscriptionProvider struct {
	mock.Mock
}

func (m *MockSubscriptionProvider) CreateSubscription(ctx context.Context, userID string) (auth.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(auth.Subscription), args.Error(1)
}

func (m *MockSubscriptionProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

// captureSink records every activity event it sees.
type captureSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *captureSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.EventType)
	}
	return types
}

// memStore is an in-memory auth.CredentialStore used across the test suite.
// When failWith is set every method returns that error.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	payments map[string]*auth.Payment
	failWith error
}

func newMemStore(users ...*auth.User) *memStore {
	s := &memStore{
		users:    map[string]*auth.User{},
		payments: map[string]*auth.Payment{},
	}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		u.EnsureDefaults()
		s.users[u.ID.String()] = u
	}
	return s
}

func (s *memStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, u := range s.users {
		if u.Email == auth.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, auth.ErrIdentityNotFound
}

func (s *memStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, auth.ErrIdentityNotFound
}

func (s *memStore) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID.String()] = user
	return user, nil
}

func (s *memStore) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	now := time.Now()
	user.LoginAttempts++
	user.LoginAttemptAt = &now
	return nil
}

func (s *memStore) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	now := time.Now()
	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	user.LoggedInAt = &now
	return nil
}

func (s *memStore) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	u, ok := s.users[id.String()]
	if !ok {
		return auth.ErrIdentityNotFound
	}
	u.ResetTokenHash = &digest
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (s *memStore) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	u, ok := s.users[id.String()]
	if !ok {
		return auth.ErrIdentityNotFound
	}
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (s *memStore) ConsumeResetToken(ctx context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	u, ok := s.users[id.String()]
	if !ok {
		return auth.ErrIdentityNotFound
	}
	if u.ResetTokenHash == nil {
		return auth.ErrInvalidResetToken
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (s *memStore) UpdateSubscription(ctx context.Context, id uuid.UUID, subscriptionID string, status auth.SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	u, ok := s.users[id.String()]
	if !ok {
		return auth.ErrIdentityNotFound
	}
	u.SubscriptionID = subscriptionID
	u.SubscriptionStatus = status
	return nil
}

func (s *memStore) RecordPayment(ctx context.Context, payment *auth.Payment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	if _, ok := s.payments[payment.PaymentID]; ok {
		return false, nil
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.payments[payment.PaymentID] = payment
	return true, nil
}

var _ auth.CredentialStore = (*memStore)(nil)

// low bcrypt cost keeps the suite fast
const testHashCost = 4

func mustHash(password string) string {
	hash, err := auth.HashPasswordWithCost(password, testHashCost)
	if err != nil {
		panic(err)
	}
	return hash
}

func testUser(email, password string, role auth.UserRole, status auth.SubscriptionStatus) *auth.User {
	return &auth.User{
		ID:                 uuid.New(),
		FullName:           "Test Account",
		Email:              auth.NormalizeEmail(email),
		PasswordHash:       mustHash(password),
		Role:               role,
		SubscriptionStatus: status,
	}
}

func testClaimsFor(user *auth.User) *auth.JWTClaims {
	return &auth.JWTClaims{
		UID:       user.ID.String(),
		UserEmail: user.Email,
		UserRole:  user.Role,
		SubStatus: user.SubscriptionStatus,
	}
}
