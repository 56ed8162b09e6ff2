package entities

import (
	"strings"
	"time"
)

// ComponentType classifies a memory component extracted from a journal entry.
type ComponentType string

const (
	ComponentTypeEvent       ComponentType = "event"
	ComponentTypeDecision    ComponentType = "decision"
	ComponentTypeThought     ComponentType = "thought"
	ComponentTypeFeeling     ComponentType = "feeling"
	ComponentTypeObservation ComponentType = "observation"
)

// MemoryComponent is a fine-grained unit derived from a journal entry by the
// upstream extraction pipeline. It is read-only for the analytics engine.
type MemoryComponent struct {
	ID                 string
	EntryID            string
	UserID             string
	Type               ComponentType
	Text               string
	CharactersInvolved []string
	Location           *string
	Timestamp          *time.Time
	CreatedAt          time.Time
	Tags               []string
	ImportanceScore    float64
	Embedding          []float64
	Metadata           map[string]interface{}
}

// OccurredAt returns the component's effective time: the explicit timestamp
// when present, otherwise the extraction time.
func (c *MemoryComponent) OccurredAt() time.Time {
	if c.Timestamp != nil {
		return *c.Timestamp
	}
	return c.CreatedAt
}

// Sentiment reads the upstream sentiment score from metadata. Components
// without a score are neutral.
func (c *MemoryComponent) Sentiment() float64 {
	if c.Metadata == nil {
		return 0
	}
	switch v := c.Metadata["sentiment"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// ArcLabel reads the upstream narrative-arc label from metadata, empty when
// the component was not assigned to an arc.
func (c *MemoryComponent) ArcLabel() string {
	if c.Metadata == nil {
		return ""
	}
	if v, ok := c.Metadata["arc"].(string); ok {
		return v
	}
	return ""
}

// Mentions reports whether the component references the named person.
func (c *MemoryComponent) Mentions(name string) bool {
	for _, involved := range c.CharactersInvolved {
		if strings.EqualFold(strings.TrimSpace(involved), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// Entry is a raw journal entry. Only the goal-progress fallback scan reads
// entries directly; everything else works on components.
type Entry struct {
	ID     string
	UserID string
	Date   time.Time
	Text   string
}
