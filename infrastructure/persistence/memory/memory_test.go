package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper-backend/domain/core/entities"
)

func ts(daysAgo int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -daysAgo)
}

func TestComponentStore_WindowAndLimit(t *testing.T) {
	store := &ComponentStore{}
	for i, daysAgo := range []int{40, 20, 10, 5} {
		at := ts(daysAgo)
		store.Add(entities.MemoryComponent{
			ID:        []string{"a", "b", "c", "d"}[i],
			UserID:    "user-1",
			Timestamp: &at,
			CreatedAt: at,
		})
	}
	other := ts(5)
	store.Add(entities.MemoryComponent{ID: "x", UserID: "user-2", Timestamp: &other, CreatedAt: other})

	got, err := store.FindByUserSince(context.Background(), "user-1", ts(30), nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Ascending by occurrence time.
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "d", got[2].ID)

	until := ts(8)
	got, err = store.FindByUserSince(context.Background(), "user-1", ts(30), &until, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = store.FindByUserSince(context.Background(), "user-1", ts(50), nil, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	count, err := store.CountByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestEventStore_AppendAndQuery(t *testing.T) {
	store := &EventStore{}
	require.NoError(t, store.SaveBatch(context.Background(), []entities.ContinuityEvent{
		{ID: "old", UserID: "user-1", DetectedAt: ts(60)},
		{ID: "new", UserID: "user-1", DetectedAt: ts(3)},
	}))

	got, err := store.FindByUser(context.Background(), "user-1", ts(30))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestBackendWith_SeedsFixtures(t *testing.T) {
	at := ts(1)
	backend := NewBackendWith(Fixtures{
		Components: []entities.MemoryComponent{{ID: "c1", UserID: "user-1", Timestamp: &at, CreatedAt: at}},
		Characters: []entities.Character{{ID: "ch1", UserID: "user-1", Name: "Ana"}},
		UserIDs:    []string{"user-1"},
	})

	chars, err := backend.Characters.FindByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, chars, 1)

	users, err := backend.Directory.ListActiveUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, users)

	require.NoError(t, backend.Bus.PublishAnalysisCompleted(context.Background(), "user-1", nil))
	assert.Equal(t, []string{"user-1"}, backend.Bus.Published())
}
