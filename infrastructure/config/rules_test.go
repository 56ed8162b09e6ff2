package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/application/detectors"
)

func TestLoadRules_EmptyPathReturnsDefaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.NotEmpty(t, rules.GoalIntentTerms)
	assert.NotEmpty(t, rules.Emotions)
	assert.NotEmpty(t, rules.ConflictTerms)
}

func TestLoadRules_OverridesMergeOverDefaults(t *testing.T) {
	path := writeRules(t, `
goal_intent_terms:
  - "resolve to"
emotions:
  - label: dread
    patterns: ["dreading", "dread"]
    severity: 7
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"resolve to"}, rules.GoalIntentTerms)
	require.Len(t, rules.Emotions, 1)
	assert.Equal(t, "dread", rules.Emotions[0].Label)

	// Untouched fields keep their defaults.
	assert.NotEmpty(t, rules.ProgressTerms)
	assert.NotEmpty(t, rules.MajorEvents)
}

func TestLoadRules_ThresholdOverridesMergeOverDefaults(t *testing.T) {
	path := writeRules(t, `
thresholds:
  stale_goal_days: 45
  novelty: 0.7
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, 45, rules.Thresholds.StaleGoalDays)
	assert.Equal(t, 0.7, rules.Thresholds.Novelty)

	// Knobs left out of the file keep their defaults.
	defaults := detectors.DefaultThresholds()
	assert.Equal(t, defaults.TopicShift, rules.Thresholds.TopicShift)
	assert.Equal(t, defaults.EmotionCluster, rules.Thresholds.EmotionCluster)
}

func TestLoadRules_RejectsInvalidRule(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing patterns",
			yaml: "emotions:\n  - label: empty\n    severity: 5\n",
		},
		{
			name: "severity out of range",
			yaml: "emotions:\n  - label: loud\n    patterns: [\"x\"]\n    severity: 40\n",
		},
		{
			name: "not yaml",
			yaml: "{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(writeRules(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules_MissingFileErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
