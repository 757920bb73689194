package tracker_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/housekeep/internal/testing/mock"
	"github.com/giantswarm/housekeep/internal/tracker"
)

func TestMilestoneCache_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	tr := mock.NewTracker(nil)
	tr.AddMilestone(tracker.Milestone{Title: "2024-01"})
	cache := tracker.NewMilestoneCache(tr)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, found, err := cache.Find(ctx, "2024-01")
			assert.NoError(t, err)
			assert.True(t, found)
		}()
	}
	wg.Wait()

	_, found, err := cache.Find(ctx, "2024-02")
	require.NoError(t, err)
	assert.False(t, found)
	assert.LessOrEqual(t, tr.CallCount("ListMilestones"), 1)
}

func TestMilestoneCache_StaleUntilRefresh(t *testing.T) {
	ctx := context.Background()
	tr := mock.NewTracker(nil)
	cache := tracker.NewMilestoneCache(tr)

	_, found, err := cache.Find(ctx, "2024-05")
	require.NoError(t, err)
	assert.False(t, found)

	tr.AddMilestone(tracker.Milestone{Title: "2024-05"})
	_, found, err = cache.Find(ctx, "2024-05")
	require.NoError(t, err)
	assert.False(t, found, "cache should not refetch on its own")

	require.NoError(t, cache.Refresh(ctx))
	_, found, err = cache.Find(ctx, "2024-05")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMilestoneCache_EnsureCreatesAndRefreshes(t *testing.T) {
	ctx := context.Background()
	tr := mock.NewTracker(nil)
	cache := tracker.NewMilestoneCache(tr)

	m, created, err := cache.Ensure(ctx, "2024-06", nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2024-06", m.Title)

	again, created, err := cache.Ensure(ctx, "2024-06", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, 1, tr.CallCount("CreateMilestone"))
}

func TestMilestoneCache_PropagatesErrors(t *testing.T) {
	tr := mock.NewTracker(nil)
	tr.FailOn("ListMilestones", errors.New("boom"))
	cache := tracker.NewMilestoneCache(tr)

	_, _, err := cache.Find(context.Background(), "x")
	assert.ErrorContains(t, err, "boom")
}

func TestMilestoneCache_EnsureSurvivesFailedReload(t *testing.T) {
	ctx := context.Background()
	tr := mock.NewTracker(nil)
	cache := tracker.NewMilestoneCache(tr)
	_, err := cache.All(ctx)
	require.NoError(t, err)

	tr.FailOn("ListMilestones", errors.New("boom"))
	m, created, err := cache.Ensure(ctx, "2024-07", nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2024-07", m.Title)

	// The created milestone is served from the cache without a second create
	again, created, err := cache.Ensure(ctx, "2024-07", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, 1, tr.CallCount("CreateMilestone"))
}
