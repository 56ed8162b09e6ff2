package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTFIDFScore(t *testing.T) {
	scorer := NewTFIDFScorer(NewDefaultTextAnalyzer(), 3)

	docs := []string{
		"started training for the marathon today",
		"marathon training felt brutal this morning",
		"spent the evening painting again",
	}

	scores := scorer.Score(docs)

	// "marathon" appears twice across two of three docs: 2 * ln(3/2).
	require.Contains(t, scores, "marathon")
	assert.InDelta(t, 2*math.Log(1.5), scores["marathon"], 1e-9)

	// "painting" appears once in one doc: 1 * ln(3).
	require.Contains(t, scores, "painting")
	assert.InDelta(t, math.Log(3), scores["painting"], 1e-9)

	// Short and stopword terms never qualify.
	assert.NotContains(t, scores, "the")
	assert.NotContains(t, scores, "felt")
}

func TestTFIDFScoreEmptyCorpus(t *testing.T) {
	scorer := NewTFIDFScorer(nil, 3)
	assert.Empty(t, scorer.Score(nil))
	assert.Empty(t, scorer.Score([]string{}))
}

func TestTopTerms(t *testing.T) {
	scores := map[string]float64{
		"marathon": 3.0,
		"painting": 1.5,
		"guitar":   1.5,
		"coffee":   0.1,
	}

	top := TopTerms(scores, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "marathon", top[0].Term)
	// Ties break alphabetically for deterministic ordering.
	assert.Equal(t, "guitar", top[1].Term)
	assert.Equal(t, "painting", top[2].Term)

	assert.Empty(t, TopTerms(nil, 5))
	assert.Len(t, TopTerms(scores, 10), 4)
}
