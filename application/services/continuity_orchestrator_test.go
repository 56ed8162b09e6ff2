package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/application/detectors"
	"lorekeeper-backend/domain/core/entities"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// stubDetector is a canned detectors.Detector for orchestrator tests.
type stubDetector struct {
	name      string
	eventType entities.EventType
	events    []entities.ContinuityEvent
	err       error
	panics    bool
}

func (d *stubDetector) Name() string                     { return d.name }
func (d *stubDetector) EventType() entities.EventType    { return d.eventType }
func (d *stubDetector) Windows() detectors.WindowSpec    { return detectors.WindowSpec{RecentDays: 7} }
func (d *stubDetector) Detect(ctx context.Context, input detectors.DetectInput) ([]entities.ContinuityEvent, error) {
	if d.panics {
		panic("detector blew up")
	}
	return d.events, d.err
}

func stubEvent(userID string, eventType entities.EventType, description string) entities.ContinuityEvent {
	return entities.NewContinuityEvent(userID, eventType, description, []string{"c1"}, 5, nil)
}

func newTestOrchestrator(t *testing.T, detectorList []detectors.Detector, events *MockEventRepository, insights *MockInsightStore) *ContinuityOrchestrator {
	t.Helper()

	components := &MockComponentRepository{}
	components.On("FindByUserSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]entities.MemoryComponent{}, nil)
	entriesRepo := &MockEntryRepository{}
	fetcher := NewWindowFetcher(components, entriesRepo, nil)

	return NewContinuityOrchestrator(fetcher, detectorList, events, insights, nil, nil, nil).
		WithClock(func() time.Time { return testNow })
}

func TestOrchestrator_SummaryAlwaysCarriesAllSixCategories(t *testing.T) {
	events := &MockEventRepository{}
	events.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	insights := &MockInsightStore{}
	insights.On("StoreInsight", mock.Anything, mock.Anything).Return(nil)

	detectorList := []detectors.Detector{
		&stubDetector{name: "contradiction", eventType: entities.EventTypeContradiction, events: []entities.ContinuityEvent{
			stubEvent("user-1", entities.EventTypeContradiction, "favorite color changed"),
			stubEvent("user-1", entities.EventTypeContradiction, "hometown changed"),
		}},
		&stubDetector{name: "arc_shift", eventType: entities.EventTypeArcShift, events: []entities.ContinuityEvent{
			stubEvent("user-1", entities.EventTypeArcShift, "writing departs from routine"),
		}},
		&stubDetector{name: "thematic_drift", eventType: entities.EventTypeThematicDrift},
	}

	result, err := newTestOrchestrator(t, detectorList, events, insights).RunAnalysis(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Len(t, result.Events, 3)
	require.Len(t, result.Summary, 6)
	assert.Equal(t, 2, result.Summary[entities.EventTypeContradiction])
	assert.Equal(t, 1, result.Summary[entities.EventTypeArcShift])
	for _, eventType := range []entities.EventType{
		entities.EventTypeAbandonedGoal,
		entities.EventTypeIdentityDrift,
		entities.EventTypeEmotionalTransition,
		entities.EventTypeThematicDrift,
	} {
		assert.Equal(t, 0, result.Summary[eventType])
	}
}

func TestOrchestrator_DetectorFailuresAreContained(t *testing.T) {
	events := &MockEventRepository{}
	events.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	insights := &MockInsightStore{}
	insights.On("StoreInsight", mock.Anything, mock.Anything).Return(nil)

	detectorList := []detectors.Detector{
		&stubDetector{name: "broken", eventType: entities.EventTypeContradiction, err: errors.New("upstream timeout")},
		&stubDetector{name: "panicky", eventType: entities.EventTypeIdentityDrift, panics: true},
		&stubDetector{name: "healthy", eventType: entities.EventTypeAbandonedGoal, events: []entities.ContinuityEvent{
			stubEvent("user-1", entities.EventTypeAbandonedGoal, "the novel went quiet"),
		}},
	}

	result, err := newTestOrchestrator(t, detectorList, events, insights).RunAnalysis(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	assert.Equal(t, entities.EventTypeAbandonedGoal, result.Events[0].Type)
	assert.Equal(t, 1, result.Summary[entities.EventTypeAbandonedGoal])
	assert.Equal(t, 0, result.Summary[entities.EventTypeContradiction])
}

func TestOrchestrator_PersistenceFailureOnlyDropsThatDetector(t *testing.T) {
	events := &MockEventRepository{}
	events.On("SaveBatch", mock.Anything, mock.MatchedBy(func(batch []entities.ContinuityEvent) bool {
		return len(batch) > 0 && batch[0].Type == entities.EventTypeContradiction
	})).Return(errors.New("conditional check failed"))
	events.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	insights := &MockInsightStore{}
	insights.On("StoreInsight", mock.Anything, mock.Anything).Return(nil)

	detectorList := []detectors.Detector{
		&stubDetector{name: "contradiction", eventType: entities.EventTypeContradiction, events: []entities.ContinuityEvent{
			stubEvent("user-1", entities.EventTypeContradiction, "favorite color changed"),
		}},
		&stubDetector{name: "emotional_arc", eventType: entities.EventTypeEmotionalTransition, events: []entities.ContinuityEvent{
			stubEvent("user-1", entities.EventTypeEmotionalTransition, "fear gave way to calm"),
		}},
	}

	result, err := newTestOrchestrator(t, detectorList, events, insights).RunAnalysis(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	assert.Equal(t, entities.EventTypeEmotionalTransition, result.Events[0].Type)
}

func TestOrchestrator_OneInsightPerNonEmptyGroup(t *testing.T) {
	events := &MockEventRepository{}
	events.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	insights := &MockInsightStore{}
	insights.On("StoreInsight", mock.Anything, mock.Anything).Return(nil)

	detectorList := []detectors.Detector{
		&stubDetector{name: "contradiction", eventType: entities.EventTypeContradiction, events: []entities.ContinuityEvent{
			stubEvent("user-1", entities.EventTypeContradiction, "favorite color changed"),
			stubEvent("user-1", entities.EventTypeContradiction, "hometown changed"),
			stubEvent("user-1", entities.EventTypeContradiction, "job title changed"),
			stubEvent("user-1", entities.EventTypeContradiction, "pet name changed"),
		}},
		&stubDetector{name: "identity_drift", eventType: entities.EventTypeIdentityDrift, events: []entities.ContinuityEvent{
			stubEvent("user-1", entities.EventTypeIdentityDrift, "self-description shifted"),
		}},
	}

	_, err := newTestOrchestrator(t, detectorList, events, insights).RunAnalysis(context.Background(), "user-1")
	require.NoError(t, err)

	insights.AssertNumberOfCalls(t, "StoreInsight", 2)

	// The four contradictions collapse into one insight quoting at most three.
	var contradictionInsight entities.Insight
	for _, call := range insights.Calls {
		insight := call.Arguments.Get(1).(entities.Insight)
		if insight.InsightType == string(entities.EventTypeContradiction) {
			contradictionInsight = insight
		}
	}
	assert.Contains(t, contradictionInsight.Text, "Found 4 contradictions")
	assert.NotContains(t, contradictionInsight.Text, "pet name changed")
}

func TestOrchestrator_InsightStoreFailureIsNotFatal(t *testing.T) {
	events := &MockEventRepository{}
	events.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	insights := &MockInsightStore{}
	insights.On("StoreInsight", mock.Anything, mock.Anything).Return(errors.New("circuit open"))

	detectorList := []detectors.Detector{
		&stubDetector{name: "contradiction", eventType: entities.EventTypeContradiction, events: []entities.ContinuityEvent{
			stubEvent("user-1", entities.EventTypeContradiction, "favorite color changed"),
		}},
	}

	result, err := newTestOrchestrator(t, detectorList, events, insights).RunAnalysis(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, result.Events, 1)
}
