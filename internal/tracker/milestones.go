package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/giantswarm/housekeep/pkg/logging"
)

const milestoneCacheKey = "milestones"

// MilestoneCache holds the project's milestone list. It is fetched lazily on
// first use and reused until Refresh is called. Callers that create a
// milestone are expected to Refresh afterwards.
type MilestoneCache struct {
	client Client

	mu         sync.RWMutex
	milestones []Milestone
	loaded     bool

	group singleflight.Group
}

// NewMilestoneCache creates an empty cache backed by client.
func NewMilestoneCache(client Client) *MilestoneCache {
	return &MilestoneCache{client: client}
}

// All returns the cached milestones, fetching them on first use.
func (c *MilestoneCache) All(ctx context.Context) ([]Milestone, error) {
	c.mu.RLock()
	if c.loaded {
		out := append([]Milestone(nil), c.milestones...)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	if err := c.load(ctx, false); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Milestone(nil), c.milestones...), nil
}

// Find returns the milestone with the given title.
func (c *MilestoneCache) Find(ctx context.Context, title string) (Milestone, bool, error) {
	all, err := c.All(ctx)
	if err != nil {
		return Milestone{}, false, err
	}
	for _, m := range all {
		if m.Title == title {
			return m, true, nil
		}
	}
	return Milestone{}, false, nil
}

// Ensure returns the milestone with the given title, creating it (and
// refreshing the cache) when it does not exist yet. created reports whether
// a milestone was created.
func (c *MilestoneCache) Ensure(ctx context.Context, title string, dueDate *time.Time) (m Milestone, created bool, err error) {
	m, found, err := c.Find(ctx, title)
	if err != nil || found {
		return m, false, err
	}

	logging.Info("Tracker", "Creating milestone %q", title)
	m, err = c.client.CreateMilestone(ctx, title, dueDate)
	if err != nil {
		return Milestone{}, false, err
	}
	if err := c.Refresh(ctx); err != nil {
		// The milestone exists. Remember it so the next Ensure does not
		// create a duplicate.
		logging.Warn("Tracker", "Created milestone %q but could not reload milestones: %v", title, err)
		c.mu.Lock()
		c.milestones = append(c.milestones, m)
		c.mu.Unlock()
	}
	return m, true, nil
}

// Refresh discards the cached list and fetches it again.
func (c *MilestoneCache) Refresh(ctx context.Context) error {
	return c.load(ctx, true)
}

func (c *MilestoneCache) load(ctx context.Context, force bool) error {
	_, err, _ := c.group.Do(milestoneCacheKey, func() (interface{}, error) {
		// Double-check after acquiring the singleflight slot
		if !force {
			c.mu.RLock()
			loaded := c.loaded
			c.mu.RUnlock()
			if loaded {
				return nil, nil
			}
		}

		milestones, err := Collect(c.client.ListMilestones(ctx, MilestoneFilter{}))
		if err != nil {
			return nil, fmt.Errorf("failed to load milestones: %w", err)
		}
		logging.Debug("Tracker", "Loaded %d milestones", len(milestones))

		c.mu.Lock()
		c.milestones = milestones
		c.loaded = true
		c.mu.Unlock()
		return nil, nil
	})
	return err
}
