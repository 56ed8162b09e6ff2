package detectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/domain/core/entities"
)

func factComponent(id, subject, attribute, value string) entities.MemoryComponent {
	return component(id, subject+" "+attribute+" "+value, 5, withMetadata(map[string]interface{}{
		"subject":   subject,
		"attribute": attribute,
		"value":     value,
	}))
}

func TestContradictionDetector_ConflictingFacts(t *testing.T) {
	detector := NewContradictionDetector(nil, nil)

	input := detectInput([]entities.MemoryComponent{
		factComponent("c1", "favorite color", "is", "blue"),
		factComponent("c2", "Favorite Color", "IS", "Red"),
		factComponent("c3", "hometown", "is", "Austin"),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, entities.EventTypeContradiction, event.Type)
	assert.ElementsMatch(t, []string{"c1", "c2"}, event.SourceComponents)
	assert.Contains(t, event.Description, "favorite color")
	assert.Contains(t, event.Description, "blue")
	assert.Contains(t, event.Description, "red")
	assert.GreaterOrEqual(t, event.Severity, 1)
	assert.LessOrEqual(t, event.Severity, 10)
}

func TestContradictionDetector_ConsistentFacts(t *testing.T) {
	detector := NewContradictionDetector(nil, nil)

	input := detectInput([]entities.MemoryComponent{
		factComponent("c1", "hometown", "is", "Austin"),
		factComponent("c2", "hometown", "is", "austin"),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestContradictionDetector_IgnoresComponentsWithoutFacts(t *testing.T) {
	detector := NewContradictionDetector(nil, nil)

	input := detectInput([]entities.MemoryComponent{
		component("c1", "went for a run this morning", 2),
		component("c2", "long day at the office", 3),
	}, nil)

	events, err := detector.Detect(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMetadataFactExtractor(t *testing.T) {
	extractor := NewMetadataFactExtractor()

	facts, err := extractor.ExtractFacts(context.Background(), []entities.MemoryComponent{
		factComponent("c1", "job", "title", "engineer"),
		component("c2", "no structured data here", 1),
		component("c3", "partial", 1, withMetadata(map[string]interface{}{"subject": "x"})),
	})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "job", facts[0].Subject)
	assert.Equal(t, "c1", facts[0].SourceID)
}
