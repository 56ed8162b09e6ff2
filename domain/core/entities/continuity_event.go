package entities

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the narrative signal a detector produced.
type EventType string

const (
	EventTypeContradiction       EventType = "contradiction"
	EventTypeAbandonedGoal       EventType = "abandoned_goal"
	EventTypeArcShift            EventType = "arc_shift"
	EventTypeIdentityDrift       EventType = "identity_drift"
	EventTypeEmotionalTransition EventType = "emotional_transition"
	EventTypeThematicDrift       EventType = "thematic_drift"
)

// AllEventTypes lists every detector category in summary order.
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeContradiction,
		EventTypeAbandonedGoal,
		EventTypeArcShift,
		EventTypeIdentityDrift,
		EventTypeEmotionalTransition,
		EventTypeThematicDrift,
	}
}

// ContinuityEvent is a detected narrative signal with provenance back to the
// source components. Events are append-only; repeated runs over overlapping
// windows may record the same signal more than once.
type ContinuityEvent struct {
	ID               string
	UserID           string
	Type             EventType
	Description      string
	SourceComponents []string
	Severity         int
	Metadata         map[string]interface{}
	DetectedAt       time.Time
}

// NewContinuityEvent builds an event with a fresh ID and the severity clamped
// into [1,10].
func NewContinuityEvent(userID string, eventType EventType, description string, sourceComponents []string, severity int, metadata map[string]interface{}) ContinuityEvent {
	return ContinuityEvent{
		ID:               uuid.New().String(),
		UserID:           userID,
		Type:             eventType,
		Description:      description,
		SourceComponents: sourceComponents,
		Severity:         ClampSeverity(severity),
		Metadata:         metadata,
		DetectedAt:       time.Now().UTC(),
	}
}

// ClampSeverity forces a severity into the valid [1,10] range.
func ClampSeverity(severity int) int {
	if severity < 1 {
		return 1
	}
	if severity > 10 {
		return 10
	}
	return severity
}

// Insight is the natural-language record synthesized from a group of events
// and handed to the external insight store.
type Insight struct {
	UserID             string
	InsightType        string
	Text               string
	Confidence         float64
	SourceComponentIDs []string
	SourceEntryIDs     []string
	Tags               []string
	Metadata           map[string]interface{}
}
