package detectors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/domain/core/entities"
)

func newGoalDetector() *AbandonedGoalDetector {
	return NewAbandonedGoalDetector(Rules{}, DefaultThresholds(), nil)
}

func TestAbandonedGoalDetector_StaleGoalFires(t *testing.T) {
	detector := newGoalDetector()

	// One goal mention 45 days ago, nothing since.
	input := detectInput([]entities.MemoryComponent{
		component("g1", "I really want to train for the spring marathon", 45),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, entities.EventTypeAbandonedGoal, event.Type)
	// round(45/10) + min(5, 1) = 5 + 1.
	assert.Equal(t, 6, event.Severity)
	assert.Equal(t, []string{"g1"}, event.SourceComponents)
	assert.Contains(t, event.Description, "train for the spring marathon")
}

func TestAbandonedGoalDetector_RecentGoalDoesNotFire(t *testing.T) {
	detector := newGoalDetector()

	input := detectInput([]entities.MemoryComponent{
		component("g1", "I plan to learn woodworking this year", 10),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAbandonedGoalDetector_ProgressTermSuppresses(t *testing.T) {
	detector := newGoalDetector()

	input := detectInput([]entities.MemoryComponent{
		component("g1", "I want to learn spanish before the trip", 60),
		component("g2", "I want to learn spanish before the trip and made progress with the app", 40),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAbandonedGoalDetector_EntryFallbackSuppresses(t *testing.T) {
	detector := newGoalDetector()

	input := detectInput([]entities.MemoryComponent{
		component("g1", "I want to train for the spring marathon", 45),
	}, nil)
	// A later raw entry shares two of the topic's first three words and
	// carries a progress term.
	input.Entries = []entities.Entry{
		{
			ID:     "e1",
			UserID: "user-1",
			Date:   testNow.Add(-20 * 24 * time.Hour),
			Text:   "Kept up the train schedule for the marathon, finished week three",
		},
	}

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAbandonedGoalDetector_EntryFallbackScansNewestFirst(t *testing.T) {
	detector := newGoalDetector()

	input := detectInput([]entities.MemoryComponent{
		component("g1", "I want to train for the spring marathon", 45),
	}, nil)
	// Repositories return entries oldest-first. Build far more than the scan
	// budget, all after the mention, with progress evidence only in the most
	// recent entry: the budget must be spent from the newest end.
	entries := make([]entities.Entry, 0, 150)
	for i := 0; i < 149; i++ {
		entries = append(entries, entities.Entry{
			ID:     "filler",
			UserID: "user-1",
			Date:   testNow.Add(-time.Duration(150-i) * 6 * time.Hour),
			Text:   "Ordinary day, nothing of note",
		})
	}
	entries = append(entries, entities.Entry{
		ID:     "progress",
		UserID: "user-1",
		Date:   testNow.Add(-6 * time.Hour),
		Text:   "Train plan for the marathon is back on, finished the long run",
	})
	input.Entries = entries

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAbandonedGoalDetector_EntryFallbackBudgetStillCaps(t *testing.T) {
	detector := newGoalDetector()

	input := detectInput([]entities.MemoryComponent{
		component("g1", "I want to train for the spring marathon", 45),
	}, nil)
	// Progress evidence buried deeper than the 100 most recent post-mention
	// entries is out of budget and must not suppress the event.
	entries := []entities.Entry{{
		ID:     "progress",
		UserID: "user-1",
		Date:   testNow.Add(-44 * 24 * time.Hour),
		Text:   "Train plan for the marathon is back on, finished the long run",
	}}
	for i := 0; i < 120; i++ {
		entries = append(entries, entities.Entry{
			ID:     "filler",
			UserID: "user-1",
			Date:   testNow.Add(-time.Duration(121-i) * 6 * time.Hour),
			Text:   "Ordinary day, nothing of note",
		})
	}
	input.Entries = entries

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entities.EventTypeAbandonedGoal, events[0].Type)
}

func TestAbandonedGoalDetector_SeverityMonotonicInStaleness(t *testing.T) {
	detector := newGoalDetector()

	previous := 0
	for _, daysAgo := range []float64{35, 45, 60, 80} {
		input := detectInput([]entities.MemoryComponent{
			component("g1", "I want to write a short novel", daysAgo),
		}, nil)

		events, err := detector.Detect(context.Background(), input)
		require.NoError(t, err)
		require.Len(t, events, 1)

		severity := events[0].Severity
		assert.GreaterOrEqual(t, severity, previous,
			"severity must not decrease as staleness grows (daysAgo=%v)", daysAgo)
		assert.GreaterOrEqual(t, severity, 1)
		assert.LessOrEqual(t, severity, 10)
		previous = severity
	}
}

func TestAbandonedGoalDetector_GroupsByExactTopic(t *testing.T) {
	detector := newGoalDetector()

	// Paraphrased goals form separate topics: documented precision tradeoff.
	input := detectInput([]entities.MemoryComponent{
		component("g1", "I want to run a marathon in autumn", 50),
		component("g2", "I want to run a marathon in autumn", 40),
		component("g3", "I hope to complete a fall marathon", 45),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// The repeated topic carries both mentions.
	var multi entities.ContinuityEvent
	for _, event := range events {
		if len(event.SourceComponents) == 2 {
			multi = event
		}
	}
	assert.ElementsMatch(t, []string{"g1", "g2"}, multi.SourceComponents)
}
