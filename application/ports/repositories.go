// Package ports defines the interfaces the analytics engine needs from the
// rest of the platform. The extraction pipeline, auth, and billing live behind
// these boundaries and are owned by other teams.
package ports

import (
	"context"
	"time"

	"lorekeeper-backend/domain/core/entities"
)

// ComponentRepository reads memory components produced by the upstream
// extraction pipeline. Until may be nil for an open-ended window.
type ComponentRepository interface {
	FindByUserSince(ctx context.Context, userID string, since time.Time, until *time.Time, limit int) ([]entities.MemoryComponent, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// EntryRepository reads raw journal entries. Only the goal-progress fallback
// scan uses it.
type EntryRepository interface {
	FindByUserSince(ctx context.Context, userID string, since time.Time, limit int) ([]entities.Entry, error)
}

// ContinuityEventRepository persists detected continuity events. Events are
// append-only.
type ContinuityEventRepository interface {
	SaveBatch(ctx context.Context, events []entities.ContinuityEvent) error
	FindByUser(ctx context.Context, userID string, since time.Time) ([]entities.ContinuityEvent, error)
}

// CharacterRepository reads the characters referenced in a user's corpus.
type CharacterRepository interface {
	FindByUser(ctx context.Context, userID string) ([]entities.Character, error)
}

// RelationshipRepository reads explicit stored relationships.
type RelationshipRepository interface {
	FindByUser(ctx context.Context, userID string) ([]entities.StoredRelationship, error)
}

// InsightStore hands synthesized insight text to the external insight service.
type InsightStore interface {
	StoreInsight(ctx context.Context, insight entities.Insight) error
}

// FactExtractor turns memory components into comparable facts. The default
// implementation reads the structured triples the extraction pipeline leaves
// in component metadata.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, components []entities.MemoryComponent) ([]entities.ExtractedFact, error)
}

// UserDirectory lists the users a scheduled run should cover.
type UserDirectory interface {
	ListActiveUserIDs(ctx context.Context) ([]string, error)
}

// NotificationBus publishes run-completed notifications for downstream
// consumers (prompt construction, digests). Best effort.
type NotificationBus interface {
	PublishAnalysisCompleted(ctx context.Context, userID string, summary map[entities.EventType]int) error
}
