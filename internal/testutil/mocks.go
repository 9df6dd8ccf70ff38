package testutil

import (
	"context"
	"credit-chat/internal/analytics"
	"credit-chat/internal/config"
	"credit-chat/internal/repository/db"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	// User mocks
	CreateUserFunc     func(ctx context.Context, email, password, role string) (*db.User, error)
	GetUserByEmailFunc func(ctx context.Context, email string) (*db.User, error)
	GetUserByIDFunc    func(ctx context.Context, id string) (*db.User, error)

	// Credit mocks
	EnsureAccountFunc func(ctx context.Context, userID string) (*db.CreditAccount, error)
	GetAccountFunc    func(ctx context.Context, userID string) (*db.CreditAccount, error)
	DeductAtomicFunc  func(ctx context.Context, userID string, amount int) (db.DeductResult, error)
	AddCreditsFunc    func(ctx context.Context, userID string, purchaseAmount int64, creditAmount int) (*db.CreditAccount, error)

	// Cost mocks
	RecordCostFunc      func(ctx context.Context, record *db.CostRecord) error
	TotalCostByUserFunc func(ctx context.Context, userID string) (decimal.Decimal, error)

	// Purchase mocks
	FulfilPurchaseFunc func(ctx context.Context, purchase *db.Purchase) (bool, *db.CreditAccount, error)

	mu          sync.Mutex
	DeductCalls int
	AddCalls    int
}

var _ db.Database = (*MockDatabase)(nil)

// User methods
func (m *MockDatabase) CreateUser(ctx context.Context, email, password, role string) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, email, password, role)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetUserByID(ctx context.Context, id string) (*db.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

// Credit methods
func (m *MockDatabase) EnsureAccount(ctx context.Context, userID string) (*db.CreditAccount, error) {
	if m.EnsureAccountFunc != nil {
		return m.EnsureAccountFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetAccount(ctx context.Context, userID string) (*db.CreditAccount, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) DeductAtomic(ctx context.Context, userID string, amount int) (db.DeductResult, error) {
	m.mu.Lock()
	m.DeductCalls++
	m.mu.Unlock()
	if m.DeductAtomicFunc != nil {
		return m.DeductAtomicFunc(ctx, userID, amount)
	}
	return db.DeductResult{}, errors.New("not implemented")
}

func (m *MockDatabase) AddCredits(ctx context.Context, userID string, purchaseAmount int64, creditAmount int) (*db.CreditAccount, error) {
	m.mu.Lock()
	m.AddCalls++
	m.mu.Unlock()
	if m.AddCreditsFunc != nil {
		return m.AddCreditsFunc(ctx, userID, purchaseAmount, creditAmount)
	}
	return nil, errors.New("not implemented")
}

// Cost methods
func (m *MockDatabase) RecordCost(ctx context.Context, record *db.CostRecord) error {
	if m.RecordCostFunc != nil {
		return m.RecordCostFunc(ctx, record)
	}
	return errors.New("not implemented")
}

func (m *MockDatabase) TotalCostByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	if m.TotalCostByUserFunc != nil {
		return m.TotalCostByUserFunc(ctx, userID)
	}
	return decimal.Zero, errors.New("not implemented")
}

// Purchase methods
func (m *MockDatabase) FulfilPurchase(ctx context.Context, purchase *db.Purchase) (bool, *db.CreditAccount, error) {
	if m.FulfilPurchaseFunc != nil {
		return m.FulfilPurchaseFunc(ctx, purchase)
	}
	return false, nil, errors.New("not implemented")
}

func (m *MockDatabase) Close() error {
	return nil
}

// MockProvider is a mock chat backend that counts its calls
type MockProvider struct {
	ChatFunc func(ctx context.Context, message string) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *MockProvider) Chat(ctx context.Context, message string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, message)
	}
	return "", errors.New("not implemented")
}

// Calls returns how many times Chat was invoked
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockCache is an in-memory reply cache. GetFunc and SetFunc override the
// map when set.
type MockCache struct {
	GetFunc func(ctx context.Context, key string) (string, bool)
	SetFunc func(ctx context.Context, key, value string, ttl time.Duration) bool

	mu      sync.Mutex
	entries map[string]string
	TTLs    map[string]time.Duration
	Gets    int
	Sets    int
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool) {
	m.mu.Lock()
	m.Gets++
	m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	m.mu.Lock()
	m.Sets++
	m.mu.Unlock()
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]string)
		m.TTLs = make(map[string]time.Duration)
	}
	m.entries[key] = value
	m.TTLs[key] = ttl
	return true
}

// Value returns a stored entry without counting a read
func (m *MockCache) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok
}

// MockTracker records analytics calls
type MockTracker struct {
	mu     sync.Mutex
	Events []analytics.Event
}

var _ analytics.Tracker = (*MockTracker)(nil)

func (m *MockTracker) TrackAIUsage(provider, operation string, duration time.Duration, creditsUsed int, userID, requestID string) {
	m.record(analytics.Event{
		Name:      analytics.EventAIUsage,
		UserID:    userID,
		RequestID: requestID,
		Properties: map[string]interface{}{
			"provider":    provider,
			"operation":   operation,
			"creditsUsed": creditsUsed,
		},
	})
}

func (m *MockTracker) TrackCreditPurchase(amount int64, credits int, userID, requestID string) {
	m.record(analytics.Event{
		Name:      analytics.EventCreditPurchase,
		UserID:    userID,
		RequestID: requestID,
		Properties: map[string]interface{}{
			"amount":  amount,
			"credits": credits,
		},
	})
}

func (m *MockTracker) record(event analytics.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// NewMockCatalog returns the default two-provider catalog
func NewMockCatalog() *config.ProviderCatalog {
	catalog, err := config.NewProviderCatalog(config.DefaultProviders())
	if err != nil {
		panic(err)
	}
	return catalog
}
