package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubAnalyzer counts per-user runs and fails the configured users.
type stubAnalyzer struct {
	mu       sync.Mutex
	ran      []string
	failFor  map[string]bool
	failures int
}

func (s *stubAnalyzer) RunAnalysis(ctx context.Context, userID string) (*AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ran = append(s.ran, userID)
	if s.failFor[userID] {
		s.failures++
		return nil, errors.New("analysis failed")
	}
	return &AnalysisResult{UserID: userID}, nil
}

type stubRelationshipRunner struct {
	mu  sync.Mutex
	ran []string
}

func (s *stubRelationshipRunner) Run(ctx context.Context, userID string) (*RelationshipPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ran = append(s.ran, userID)
	return &RelationshipPayload{UserID: userID}, nil
}

func TestBatchScheduler_BatchesWithDelayBetweenThem(t *testing.T) {
	directory := &MockUserDirectory{}
	directory.On("ListActiveUserIDs", mock.Anything).Return([]string{
		"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9", "u10",
	}, nil)

	analyzer := &stubAnalyzer{}
	var sleeps []time.Duration
	scheduler := NewBatchScheduler(directory, analyzer, nil, 4, 0, nil, nil).
		WithSleep(func(d time.Duration) { sleeps = append(sleeps, d) })

	report, err := scheduler.RunAll(context.Background(), TriggerDaily)
	require.NoError(t, err)

	assert.Equal(t, 10, report.Users)
	assert.Equal(t, 10, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, analyzer.ran, 10)

	// Three batches of 4/4/2, a delay after each batch except the last.
	require.Len(t, sleeps, 2)
	for _, d := range sleeps {
		assert.Equal(t, DefaultBatchDelay, d)
	}
}

func TestBatchScheduler_UserFailureDoesNotStopBatch(t *testing.T) {
	directory := &MockUserDirectory{}
	directory.On("ListActiveUserIDs", mock.Anything).Return([]string{"u1", "u2", "u3", "u4", "u5"}, nil)

	analyzer := &stubAnalyzer{failFor: map[string]bool{"u2": true, "u5": true}}
	scheduler := NewBatchScheduler(directory, analyzer, nil, 2, time.Millisecond, nil, nil).
		WithSleep(func(time.Duration) {})

	report, err := scheduler.RunAll(context.Background(), TriggerDaily)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Users)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Len(t, analyzer.ran, 5)
}

func TestBatchScheduler_WeeklyAlsoRecomputesRelationships(t *testing.T) {
	directory := &MockUserDirectory{}
	directory.On("ListActiveUserIDs", mock.Anything).Return([]string{"u1", "u2"}, nil)

	analyzer := &stubAnalyzer{}
	relationships := &stubRelationshipRunner{}
	scheduler := NewBatchScheduler(directory, analyzer, relationships, 2, time.Millisecond, nil, nil).
		WithSleep(func(time.Duration) {})

	_, err := scheduler.RunAll(context.Background(), TriggerWeekly)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, relationships.ran)

	// Daily runs leave relationship analytics to its own cache TTL.
	_, err = scheduler.RunAll(context.Background(), TriggerDaily)
	require.NoError(t, err)
	assert.Len(t, relationships.ran, 2)
}

func TestBatchScheduler_DirectoryFailureSurfaces(t *testing.T) {
	directory := &MockUserDirectory{}
	directory.On("ListActiveUserIDs", mock.Anything).Return(nil, errors.New("directory down"))

	scheduler := NewBatchScheduler(directory, &stubAnalyzer{}, nil, 0, 0, nil, nil)

	_, err := scheduler.RunAll(context.Background(), TriggerDaily)
	assert.Error(t, err)
}
