package detectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/domain/core/entities"
)

func newThematicDriftDetector() *ThematicDriftDetector {
	return NewThematicDriftDetector(nil, DefaultThresholds(), nil)
}

func TestThematicDriftDetector_TopTermChange(t *testing.T) {
	detector := newThematicDriftDetector()

	input := detectInput(
		[]entities.MemoryComponent{
			component("r1", "pottery class tonight, pottery glaze drying, pottery wheel", 1),
			component("r2", "more pottery practice", 2),
			component("r3", "ordered some brushes", 3),
		},
		[]entities.MemoryComponent{
			component("b1", "marathon training program", 10),
			component("b2", "marathon pacing notes, marathon fueling", 15),
			component("b3", "skipped the session", 20),
		},
	)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)

	changes := eventsWithSignal(events, "top_term_change")
	require.Len(t, changes, 1)
	assert.Equal(t, "marathon", changes[0].Metadata["previous_term"])
	assert.Equal(t, "pottery", changes[0].Metadata["current_term"])

	replacements := eventsWithSignal(events, "theme_replacement")
	require.NotEmpty(t, replacements)
	assert.Equal(t, 5, replacements[0].Severity)
}

func TestThematicDriftDetector_StableThemesSilent(t *testing.T) {
	detector := newThematicDriftDetector()

	input := detectInput(
		[]entities.MemoryComponent{component("r1", "marathon training program", 1)},
		[]entities.MemoryComponent{component("b1", "marathon training program", 10)},
	)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestThematicDriftDetector_ClusterShift(t *testing.T) {
	detector := newThematicDriftDetector()

	input := detectInput(
		[]entities.MemoryComponent{
			component("r1", "something new entirely", 1, withEmbedding([]float64{0, 1})),
		},
		[]entities.MemoryComponent{
			component("b1", "the usual routine", 10, withEmbedding([]float64{1, 0})),
		},
	)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)

	shifts := eventsWithSignal(events, "cluster_shift")
	require.Len(t, shifts, 1)
	assert.InDelta(t, 0.0, shifts[0].Metadata["similarity"].(float64), 1e-9)
	assert.Equal(t, 10, shifts[0].Severity)
}

func TestThematicDriftDetector_NoEmbeddingsSkipsClusterShift(t *testing.T) {
	detector := newThematicDriftDetector()

	input := detectInput(
		[]entities.MemoryComponent{component("r1", "pottery tonight", 1)},
		[]entities.MemoryComponent{component("b1", "marathon training", 10)},
	)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, eventsWithSignal(events, "cluster_shift"))
}

func TestThematicDriftDetector_EmptyWindowSilent(t *testing.T) {
	detector := newThematicDriftDetector()

	events, err := detector.Detect(context.Background(), detectInput(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, events)
}
