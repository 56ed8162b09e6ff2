package detectors

import (
	"time"

	"lorekeeper-backend/domain/core/entities"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type componentOption func(*entities.MemoryComponent)

func withEmbedding(embedding []float64) componentOption {
	return func(c *entities.MemoryComponent) { c.Embedding = embedding }
}

func withType(t entities.ComponentType) componentOption {
	return func(c *entities.MemoryComponent) { c.Type = t }
}

func withMetadata(metadata map[string]interface{}) componentOption {
	return func(c *entities.MemoryComponent) { c.Metadata = metadata }
}

func withTags(tags ...string) componentOption {
	return func(c *entities.MemoryComponent) { c.Tags = tags }
}

func component(id, text string, daysAgo float64, opts ...componentOption) entities.MemoryComponent {
	ts := testNow.Add(-time.Duration(daysAgo*24) * time.Hour)
	c := entities.MemoryComponent{
		ID:        id,
		EntryID:   "entry-" + id,
		UserID:    "user-1",
		Type:      entities.ComponentTypeEvent,
		Text:      text,
		Timestamp: &ts,
		CreatedAt: ts,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func detectInput(recent, baseline []entities.MemoryComponent) DetectInput {
	return DetectInput{
		UserID:   "user-1",
		Recent:   recent,
		Baseline: baseline,
		Now:      testNow,
	}
}
