// Package mock provides test doubles for housekeep components.
//
// Key Components:
//
// Tracker: an in-memory implementation of tracker.Client. Issues, notes,
// label events and milestones are seeded directly; every call is recorded so
// tests can assert on the exact mutations a rule performed. Label changes
// made through UpdateIssue append label events the way GitLab does, and
// individual methods can be made to fail with FailOn.
//
// MockClock: a controllable clock.Clock for idle gates and past-due windows.
//
// Usage:
//
//	clk := mock.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
//	tr := mock.NewTracker(clk)
//	tr.AddIssue(tracker.Issue{IID: 1, State: tracker.StateOpened, Labels: []string{"bug"}})
//	tr.AddNote(1, tracker.Note{Body: "!count 5"})
//
//	// ... run the code under test ...
//
//	assert.Equal(t, 1, tr.CallCount("UpdateIssue"))
package mock
