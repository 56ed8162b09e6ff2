package detectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/domain/core/entities"
)

func newIdentityDriftDetector() *IdentityDriftDetector {
	return NewIdentityDriftDetector(nil, Rules{}, DefaultThresholds(), nil)
}

func TestIdentityDriftDetector_DescriptorShift(t *testing.T) {
	detector := newIdentityDriftDetector()

	input := detectInput(
		[]entities.MemoryComponent{
			component("r1", "I am becoming an early riser these days", 2),
		},
		[]entities.MemoryComponent{
			component("b1", "I am hopelessly nocturnal, always have been", 20),
		},
	)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)

	shifts := eventsWithSignal(events, "descriptor_shift")
	require.Len(t, shifts, 1)

	event := shifts[0]
	assert.Equal(t, entities.EventTypeIdentityDrift, event.Type)
	assert.Contains(t, event.Metadata["gained"], "early")
	assert.Contains(t, event.Metadata["lost"], "nocturnal")
	assert.GreaterOrEqual(t, event.Severity, 3)
	assert.LessOrEqual(t, event.Severity, 10)
}

func TestIdentityDriftDetector_StableDescriptorsSilent(t *testing.T) {
	detector := newIdentityDriftDetector()

	input := detectInput(
		[]entities.MemoryComponent{
			component("r1", "I am still a runner at heart", 2),
		},
		[]entities.MemoryComponent{
			component("b1", "I am still a runner at heart", 20),
		},
	)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestIdentityDriftDetector_NoSelfReferenceSilent(t *testing.T) {
	detector := newIdentityDriftDetector()

	input := detectInput(
		[]entities.MemoryComponent{component("r1", "groceries and laundry today", 1)},
		[]entities.MemoryComponent{component("b1", "meetings all afternoon", 15)},
	)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestIdentityDriftDetector_CentroidShiftUsesOwnThreshold(t *testing.T) {
	detector := newIdentityDriftDetector()

	// Similarity 0.55 sits between the identity threshold (0.5) and the
	// thematic cluster threshold (0.6): identity drift must stay silent.
	a := []float64{1, 0}
	b := []float64{0.55, 0.835}

	input := detectInput(
		[]entities.MemoryComponent{
			component("r1", "I am becoming an early riser these days", 2, withEmbedding(b)),
		},
		[]entities.MemoryComponent{
			component("b1", "I am becoming an early riser these days", 20, withEmbedding(a)),
		},
	)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, eventsWithSignal(events, "centroid_shift"))

	// Orthogonal voices do fire.
	input.Recent[0].Embedding = []float64{0, 1}
	events, err = detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Len(t, eventsWithSignal(events, "centroid_shift"), 1)
}
