// Package memory holds in-memory implementations of the persistence ports for
// tests, the CLI, and local runs. All stores are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
)

// Fixtures seeds a full in-memory backend in one call.
type Fixtures struct {
	Components    []entities.MemoryComponent
	Entries       []entities.Entry
	Characters    []entities.Character
	Relationships []entities.StoredRelationship
	UserIDs       []string
}

// Backend bundles every in-memory port implementation.
type Backend struct {
	Components    *ComponentStore
	Entries       *EntryStore
	Events        *EventStore
	Characters    *CharacterStore
	Relationships *RelationshipStore
	Insights      *InsightStore
	Directory     *Directory
	Bus           *NotificationLog
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	return &Backend{
		Components:    &ComponentStore{},
		Entries:       &EntryStore{},
		Events:        &EventStore{},
		Characters:    &CharacterStore{},
		Relationships: &RelationshipStore{},
		Insights:      &InsightStore{},
		Directory:     &Directory{},
		Bus:           &NotificationLog{},
	}
}

// NewBackendWith creates a backend pre-seeded with fixtures.
func NewBackendWith(fixtures Fixtures) *Backend {
	b := NewBackend()
	b.Components.components = append(b.Components.components, fixtures.Components...)
	b.Entries.entries = append(b.Entries.entries, fixtures.Entries...)
	b.Characters.characters = append(b.Characters.characters, fixtures.Characters...)
	b.Relationships.relationships = append(b.Relationships.relationships, fixtures.Relationships...)
	b.Directory.userIDs = append(b.Directory.userIDs, fixtures.UserIDs...)
	return b
}

// ComponentStore implements ports.ComponentRepository.
type ComponentStore struct {
	mu         sync.RWMutex
	components []entities.MemoryComponent
}

var _ ports.ComponentRepository = (*ComponentStore)(nil)

// Add appends components.
func (s *ComponentStore) Add(components ...entities.MemoryComponent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = append(s.components, components...)
}

func (s *ComponentStore) FindByUserSince(ctx context.Context, userID string, since time.Time, until *time.Time, limit int) ([]entities.MemoryComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.MemoryComponent, 0)
	for _, c := range s.components {
		if c.UserID != userID {
			continue
		}
		at := c.OccurredAt()
		if at.Before(since) {
			continue
		}
		if until != nil && at.After(*until) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].OccurredAt().Before(matched[j].OccurredAt())
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *ComponentStore) CountByUser(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.components {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

// EntryStore implements ports.EntryRepository.
type EntryStore struct {
	mu      sync.RWMutex
	entries []entities.Entry
}

var _ ports.EntryRepository = (*EntryStore)(nil)

func (s *EntryStore) Add(entries ...entities.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

func (s *EntryStore) FindByUserSince(ctx context.Context, userID string, since time.Time, limit int) ([]entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.Entry, 0)
	for _, e := range s.entries {
		if e.UserID != userID || e.Date.Before(since) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// EventStore implements ports.ContinuityEventRepository.
type EventStore struct {
	mu     sync.RWMutex
	events []entities.ContinuityEvent
}

var _ ports.ContinuityEventRepository = (*EventStore)(nil)

func (s *EventStore) SaveBatch(ctx context.Context, events []entities.ContinuityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *EventStore) FindByUser(ctx context.Context, userID string, since time.Time) ([]entities.ContinuityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.ContinuityEvent, 0)
	for _, e := range s.events {
		if e.UserID == userID && !e.DetectedAt.Before(since) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].DetectedAt.Before(matched[j].DetectedAt) })
	return matched, nil
}

// All returns every stored event.
func (s *EventStore) All() []entities.ContinuityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.ContinuityEvent(nil), s.events...)
}

// CharacterStore implements ports.CharacterRepository.
type CharacterStore struct {
	mu         sync.RWMutex
	characters []entities.Character
}

var _ ports.CharacterRepository = (*CharacterStore)(nil)

func (s *CharacterStore) Add(characters ...entities.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters = append(s.characters, characters...)
}

func (s *CharacterStore) FindByUser(ctx context.Context, userID string) ([]entities.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.Character, 0)
	for _, c := range s.characters {
		if c.UserID == userID {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// RelationshipStore implements ports.RelationshipRepository.
type RelationshipStore struct {
	mu            sync.RWMutex
	relationships []entities.StoredRelationship
}

var _ ports.RelationshipRepository = (*RelationshipStore)(nil)

func (s *RelationshipStore) FindByUser(ctx context.Context, userID string) ([]entities.StoredRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.StoredRelationship, 0)
	for _, r := range s.relationships {
		if r.UserID == userID {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// InsightStore implements ports.InsightStore by recording insights.
type InsightStore struct {
	mu       sync.RWMutex
	insights []entities.Insight
}

var _ ports.InsightStore = (*InsightStore)(nil)

func (s *InsightStore) StoreInsight(ctx context.Context, insight entities.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = append(s.insights, insight)
	return nil
}

// All returns every stored insight.
func (s *InsightStore) All() []entities.Insight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Insight(nil), s.insights...)
}

// Directory implements ports.UserDirectory.
type Directory struct {
	mu      sync.RWMutex
	userIDs []string
}

var _ ports.UserDirectory = (*Directory)(nil)

func (d *Directory) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.userIDs...), nil
}

// NotificationLog implements ports.NotificationBus by recording publishes.
type NotificationLog struct {
	mu        sync.RWMutex
	published []string
}

var _ ports.NotificationBus = (*NotificationLog)(nil)

func (l *NotificationLog) PublishAnalysisCompleted(ctx context.Context, userID string, summary map[entities.EventType]int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.published = append(l.published, userID)
	return nil
}

// Published returns the user IDs notified so far.
func (l *NotificationLog) Published() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.published...)
}
