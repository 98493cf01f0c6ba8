package auth_test

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/precinctdesk/go-auth"
)

// MockAccountStore implements auth.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*auth.Account)
	return account, args.Error(1)
}

func (m *MockAccountStore) Insert(ctx context.Context, account *auth.Account) (*auth.Account, error) {
	args := m.Called(ctx, account)
	if fn, ok := args.Get(0).(func(context.Context, *auth.Account) *auth.Account); ok {
		return fn(ctx, account), args.Error(1)
	}
	created, _ := args.Get(0).(*auth.Account)
	return created, args.Error(1)
}

// MockTokenIssuer implements auth.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(accountID string, role auth.Role) (string, error) {
	args := m.Called(accountID, role)
	return args.String(0), args.Error(1)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.Called(msg, args)
}

// quietLogger drops every message
type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

// memoryStore is an AccountStore over a map
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account
	inserts  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: map[string]*auth.Account{}}
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[email]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (s *memoryStore) Insert(_ context.Context, account *auth.Account) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Email]; ok {
		return nil, auth.ErrDuplicateAccount
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	s.inserts++
	copied := *account
	s.accounts[account.Email] = &copied
	return account, nil
}

// recordingSink keeps every activity event
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

var mockAnyArgs = mock.Anything

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// tamperLastChar flips the lowest bit of the final signature character.
// For an HS256 signature that bit is base64 padding.
func tamperLastChar(token string) string {
	return lastCharVariants(token)[0]
}

// lastCharVariants returns the token with its final character replaced by
// every other base64url character, low bit flips first.
func lastCharVariants(token string) []string {
	last := token[len(token)-1]
	idx := strings.IndexByte(base64URLAlphabet, last)
	prefix := token[:len(token)-1]

	out := make([]string, 0, len(base64URLAlphabet)-1)
	for bit := 1; bit < len(base64URLAlphabet); bit <<= 1 {
		out = append(out, prefix+string(base64URLAlphabet[idx^bit]))
	}
	for i := 0; i < len(base64URLAlphabet); i++ {
		if i == idx || isSingleBitFlip(i, idx) {
			continue
		}
		out = append(out, prefix+string(base64URLAlphabet[i]))
	}
	return out
}

func isSingleBitFlip(a, b int) bool {
	x := a ^ b
	return x != 0 && x&(x-1) == 0
}
