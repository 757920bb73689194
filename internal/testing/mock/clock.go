package mock

import (
	"sync"
	"time"

	"github.com/giantswarm/housekeep/internal/clock"
)

var _ clock.Clock = (*MockClock)(nil)

// Epoch is where a MockClock starts when it is given the zero time.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// MockClock is a clock.Clock that only moves when a test moves it.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock returns a clock stopped at start, or at Epoch when start is zero.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = Epoch
	}
	return &MockClock{now: start}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock by d and returns the new time.
func (c *MockClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// AdvanceDays moves the clock by n whole days.
func (c *MockClock) AdvanceDays(n int) time.Time {
	return c.Advance(time.Duration(n) * 24 * time.Hour)
}

func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
