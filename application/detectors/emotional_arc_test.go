package detectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/domain/core/entities"
)

func TestEmotionalArcDetector_TransitionFires(t *testing.T) {
	detector := NewEmotionalArcDetector(Rules{}, nil)

	// Older half anxious, newer half content.
	input := detectInput([]entities.MemoryComponent{
		component("c1", "anxious about the deadline", 28),
		component("c2", "worried sick all day", 24),
		component("c3", "still scared of the outcome", 20),
		component("c4", "feeling calm after the decision", 8),
		component("c5", "peaceful morning, finally relaxed", 5),
		component("c6", "content with how things landed", 2),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, entities.EventTypeEmotionalTransition, event.Type)
	assert.Equal(t, "fear", event.Metadata["from"])
	assert.Equal(t, "calm", event.Metadata["to"])
	// Every second-half component shares the new emotion.
	assert.Equal(t, 10, event.Severity)
	assert.ElementsMatch(t, []string{"c4", "c5", "c6"}, event.SourceComponents)
}

func TestEmotionalArcDetector_StableToneSilent(t *testing.T) {
	detector := NewEmotionalArcDetector(Rules{}, nil)

	input := detectInput([]entities.MemoryComponent{
		component("c1", "happy with the progress", 25),
		component("c2", "excited about the plans", 18),
		component("c3", "grateful and happy again", 10),
		component("c4", "thrilled about the news", 3),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEmotionalArcDetector_TooFewClassifiedSilent(t *testing.T) {
	detector := NewEmotionalArcDetector(Rules{}, nil)

	input := detectInput([]entities.MemoryComponent{
		component("c1", "anxious about everything", 20),
		component("c2", "calm again", 5),
		component("c3", "errands and chores", 3),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}
