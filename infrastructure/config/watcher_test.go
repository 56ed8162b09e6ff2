package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/application/detectors"
)

func TestRulesWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("goal_intent_terms: [\"plan to\"]\n"), 0o644))

	watcher, err := NewRulesWatcher(path, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Equal(t, []string{"plan to"}, watcher.Current().GoalIntentTerms)

	var reloads atomic.Int32
	watcher.OnChange(func(detectors.Rules) { reloads.Add(1) })
	watcher.Start()

	require.NoError(t, os.WriteFile(path, []byte("goal_intent_terms: [\"swear to\"]\n"), 0o644))

	assert.Eventually(t, func() bool {
		terms := watcher.Current().GoalIntentTerms
		return len(terms) == 1 && terms[0] == "swear to"
	}, 2*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool { return reloads.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestRulesWatcher_KeepsRulesWhenFileTurnsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("conflict_terms: [\"argued\"]\n"), 0o644))

	watcher, err := NewRulesWatcher(path, nil)
	require.NoError(t, err)
	defer watcher.Stop()
	watcher.Start()

	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	// The bad write must not clobber the active rules.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, []string{"argued"}, watcher.Current().ConflictTerms)
}

func TestRulesWatcher_MissingInitialFileErrors(t *testing.T) {
	_, err := NewRulesWatcher(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}
