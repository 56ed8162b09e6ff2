package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"lorekeeper-backend/domain/core/entities"
)

type MockComponentRepository struct {
	mock.Mock
}

func (m *MockComponentRepository) FindByUserSince(ctx context.Context, userID string, since time.Time, until *time.Time, limit int) ([]entities.MemoryComponent, error) {
	args := m.Called(ctx, userID, since, until, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.MemoryComponent), args.Error(1)
}

func (m *MockComponentRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) FindByUserSince(ctx context.Context, userID string, since time.Time, limit int) ([]entities.Entry, error) {
	args := m.Called(ctx, userID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Entry), args.Error(1)
}

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) SaveBatch(ctx context.Context, events []entities.ContinuityEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockEventRepository) FindByUser(ctx context.Context, userID string, since time.Time) ([]entities.ContinuityEvent, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ContinuityEvent), args.Error(1)
}

type MockCharacterRepository struct {
	mock.Mock
}

func (m *MockCharacterRepository) FindByUser(ctx context.Context, userID string) ([]entities.Character, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Character), args.Error(1)
}

type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) FindByUser(ctx context.Context, userID string) ([]entities.StoredRelationship, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.StoredRelationship), args.Error(1)
}

type MockInsightStore struct {
	mock.Mock
}

func (m *MockInsightStore) StoreInsight(ctx context.Context, insight entities.Insight) error {
	args := m.Called(ctx, insight)
	return args.Error(0)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockNotificationBus struct {
	mock.Mock
}

func (m *MockNotificationBus) PublishAnalysisCompleted(ctx context.Context, userID string, summary map[entities.EventType]int) error {
	args := m.Called(ctx, userID, summary)
	return args.Error(0)
}

// fakeCache is a minimal in-memory ports.Cache for tests. TTL is recorded but
// only enforced when advance moves the fake clock past it.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]fakeCacheEntry
	clock   time.Time
}

type fakeCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]fakeCacheEntry), clock: time.Now()}
}

func (c *fakeCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = c.clock.Add(d)
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || c.clock.After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = fakeCacheEntry{value: value, expiresAt: c.clock.Add(ttl)}
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Clear(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}
