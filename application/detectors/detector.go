// Package detectors holds the continuity detectors. Each detector is a pure
// scan over pre-fetched memory windows; fetching, persistence, and failure
// isolation belong to the orchestrator.
package detectors

import (
	"context"
	"time"

	"lorekeeper-backend/domain/core/entities"
)

// WindowSpec declares the windows a detector wants the orchestrator to fetch.
// BaselineDays of zero means no baseline window. BaselineGapDays shifts the
// baseline's end back so it excludes the recent window.
type WindowSpec struct {
	RecentDays      int
	BaselineDays    int
	BaselineGapDays int
	NeedsEntries    bool
}

// DetectInput carries everything a detector reads during one run.
type DetectInput struct {
	UserID   string
	Recent   []entities.MemoryComponent
	Baseline []entities.MemoryComponent
	Entries  []entities.Entry
	Now      time.Time
}

// Detector is one continuity signal scanner. Detect never mutates its input
// and may return zero events; errors are contained by the orchestrator.
type Detector interface {
	Name() string
	EventType() entities.EventType
	Windows() WindowSpec
	Detect(ctx context.Context, input DetectInput) ([]entities.ContinuityEvent, error)
}
