package staterules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/housekeep/internal/events"
	"github.com/giantswarm/housekeep/internal/testing/mock"
	"github.com/giantswarm/housekeep/internal/tracker"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func setup(issue tracker.Issue, cfg Config) (*Rules, *mock.Tracker) {
	tr := mock.NewTracker(mock.NewMockClock(now))
	tr.AddIssue(issue)
	return New(tr, cfg, tracker.NewMilestoneCache(tr), mock.NewMockClock(now)), tr
}

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestFieldRules(t *testing.T) {
	type ruleFunc func(*Rules, context.Context, tracker.Issue) (tracker.Issue, *events.Change, error)

	tests := []struct {
		name     string
		rule     ruleFunc
		cfg      Config
		issue    tracker.Issue
		expected *events.Change
	}{
		{
			name:     "obsolete open issue is closed",
			rule:     (*Rules).CloseObsolete,
			cfg:      DefaultConfig(),
			issue:    tracker.Issue{IID: 1, State: tracker.StateOpened, Labels: []string{"obsolete"}},
			expected: &events.Change{Key: events.KeyState, Value: "closed"},
		},
		{
			name:  "obsolete rule ignores closed issues",
			rule:  (*Rules).CloseObsolete,
			cfg:   DefaultConfig(),
			issue: tracker.Issue{IID: 1, State: tracker.StateClosed, Labels: []string{"obsolete"}},
		},
		{
			name:  "obsolete rule disabled without label",
			rule:  (*Rules).CloseObsolete,
			cfg:   Config{},
			issue: tracker.Issue{IID: 1, State: tracker.StateOpened, Labels: []string{"obsolete"}},
		},
		{
			name:     "closed issue is locked",
			rule:     (*Rules).LockClosed,
			cfg:      DefaultConfig(),
			issue:    tracker.Issue{IID: 1, State: tracker.StateClosed},
			expected: &events.Change{Key: events.KeyDiscussionLocked, Value: "true"},
		},
		{
			name:  "locked closed issue is left alone",
			rule:  (*Rules).LockClosed,
			cfg:   DefaultConfig(),
			issue: tracker.Issue{IID: 1, State: tracker.StateClosed, DiscussionLocked: true},
		},
		{
			name:  "open issue is not locked",
			rule:  (*Rules).LockClosed,
			cfg:   DefaultConfig(),
			issue: tracker.Issue{IID: 1, State: tracker.StateOpened},
		},
		{
			name:     "closed issue becomes confidential",
			rule:     (*Rules).EnforceConfidential,
			cfg:      DefaultConfig(),
			issue:    tracker.Issue{IID: 1, State: tracker.StateClosed, Labels: []string{"public"}},
			expected: &events.Change{Key: events.KeyConfidential, Value: "true"},
		},
		{
			name:     "open public issue is made visible",
			rule:     (*Rules).EnforceConfidential,
			cfg:      DefaultConfig(),
			issue:    tracker.Issue{IID: 1, State: tracker.StateOpened, Labels: []string{"public"}, Confidential: true},
			expected: &events.Change{Key: events.KeyConfidential, Value: "false"},
		},
		{
			name:     "open issue without public label is hidden",
			rule:     (*Rules).EnforceConfidential,
			cfg:      DefaultConfig(),
			issue:    tracker.Issue{IID: 1, State: tracker.StateOpened},
			expected: &events.Change{Key: events.KeyConfidential, Value: "true"},
		},
		{
			name:  "open issue untouched without public label configured",
			rule:  (*Rules).EnforceConfidential,
			cfg:   Config{},
			issue: tracker.Issue{IID: 1, State: tracker.StateOpened},
		},
		{
			name:     "closer is assigned",
			rule:     (*Rules).AssignCloser,
			cfg:      DefaultConfig(),
			issue:    tracker.Issue{IID: 1, State: tracker.StateClosed, ClosedBy: &tracker.User{ID: 7, Username: "alice"}},
			expected: &events.Change{Key: events.KeyAssignee, Value: "alice"},
		},
		{
			name:     "fallback assignee when closer unknown",
			rule:     (*Rules).AssignCloser,
			cfg:      Config{FallbackAssignee: 42},
			issue:    tracker.Issue{IID: 1, State: tracker.StateClosed},
			expected: &events.Change{Key: events.KeyAssignee, Value: "#42"},
		},
		{
			name:  "assigned issue is left alone",
			rule:  (*Rules).AssignCloser,
			cfg:   Config{FallbackAssignee: 42},
			issue: tracker.Issue{IID: 1, State: tracker.StateClosed, Assignees: []tracker.User{{ID: 3}}},
		},
		{
			name:  "no closer and no fallback",
			rule:  (*Rules).AssignCloser,
			cfg:   DefaultConfig(),
			issue: tracker.Issue{IID: 1, State: tracker.StateClosed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, tr := setup(tt.issue, tt.cfg)

			updated, change, err := tt.rule(r, context.Background(), tt.issue)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, change)

			if tt.expected == nil {
				assert.Equal(t, 0, tr.MutationCount())
				assert.Equal(t, tt.issue, updated)
				return
			}
			assert.Equal(t, 1, tr.CallCount("UpdateIssue"))

			// A second application on the result is a no-op
			tr.ResetCalls()
			_, change, err = tt.rule(r, context.Background(), updated)
			require.NoError(t, err)
			assert.Nil(t, change)
			assert.Equal(t, 0, tr.MutationCount())
		})
	}
}

func TestFieldRules_TrackerError(t *testing.T) {
	issue := tracker.Issue{IID: 1, State: tracker.StateClosed}
	r, tr := setup(issue, DefaultConfig())
	tr.FailOn("UpdateIssue", errors.New("boom"))

	got, change, err := r.LockClosed(context.Background(), issue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Nil(t, change)
	assert.Equal(t, issue, got)
}

func TestAssignDueMilestone(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the milestone once and reuses it", func(t *testing.T) {
		issue := tracker.Issue{IID: 1, State: tracker.StateOpened, DueDate: date("2024-07-15")}
		r, tr := setup(issue, DefaultConfig())
		tr.AddIssue(tracker.Issue{IID: 2, State: tracker.StateOpened, DueDate: date("2024-07-30")})

		updated, change, err := r.AssignDueMilestone(ctx, issue)
		require.NoError(t, err)
		assert.Equal(t, &events.Change{Key: events.KeyMilestone, Value: "2024-07"}, change)
		require.NotNil(t, updated.Milestone)
		assert.Equal(t, "2024-07", updated.Milestone.Title)

		_, change, err = r.AssignDueMilestone(ctx, tr.Issue(2))
		require.NoError(t, err)
		assert.Equal(t, "2024-07", change.Value)
		assert.Equal(t, 1, tr.CallCount("CreateMilestone"))
		assert.Len(t, tr.Milestones(), 1)
	})

	t.Run("uses an existing milestone", func(t *testing.T) {
		issue := tracker.Issue{IID: 1, State: tracker.StateOpened, DueDate: date("2024-07-15")}
		r, tr := setup(issue, Config{DueMilestone: true, MilestoneTitleFormat: "Jan 2006"})
		existing := tr.AddMilestone(tracker.Milestone{Title: "Jul 2024"})

		updated, change, err := r.AssignDueMilestone(ctx, issue)
		require.NoError(t, err)
		assert.Equal(t, "Jul 2024", change.Value)
		assert.Equal(t, existing.ID, updated.Milestone.ID)
		assert.Equal(t, 0, tr.CallCount("CreateMilestone"))
	})

	t.Run("skips issues that do not qualify", func(t *testing.T) {
		for _, issue := range []tracker.Issue{
			{IID: 1, State: tracker.StateOpened},
			{IID: 1, State: tracker.StateClosed, DueDate: date("2024-07-15")},
			{IID: 1, State: tracker.StateOpened, DueDate: date("2024-07-15"), Milestone: &tracker.MilestoneRef{ID: 5, Title: "x"}},
		} {
			r, tr := setup(issue, DefaultConfig())
			_, change, err := r.AssignDueMilestone(ctx, issue)
			require.NoError(t, err)
			assert.Nil(t, change)
			assert.Equal(t, 0, tr.MutationCount())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		issue := tracker.Issue{IID: 1, State: tracker.StateOpened, DueDate: date("2024-07-15")}
		r, tr := setup(issue, Config{})
		_, change, err := r.AssignDueMilestone(ctx, issue)
		require.NoError(t, err)
		assert.Nil(t, change)
		assert.Equal(t, 0, tr.MutationCount())
	})
}

func notice(id int, age time.Duration) tracker.Note {
	at := now.Add(-age)
	return tracker.Note{ID: id, Body: PastDueNoticePrefix + " :alarm_clock: The issue is past due.", CreatedAt: at, UpdatedAt: at}
}

func TestNotifyPastDue(t *testing.T) {
	pastDue := tracker.Issue{
		IID:       4,
		State:     tracker.StateOpened,
		DueDate:   date("2024-06-08"),
		Assignees: []tracker.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}},
	}

	tests := []struct {
		name            string
		issue           tracker.Issue
		notes           []tracker.Note
		expected        *events.Change
		expectedDeletes int
		expectedCreates int
	}{
		{
			name:            "stale notice is replaced",
			issue:           pastDue,
			notes:           []tracker.Note{notice(500, 30*time.Hour)},
			expected:        &events.Change{Key: events.KeyPastDueNote, Value: NoticeCreatedNew},
			expectedDeletes: 1,
			expectedCreates: 1,
		},
		{
			name:  "fresh notice means nothing to do",
			issue: pastDue,
			notes: []tracker.Note{notice(500, 10*time.Hour)},
		},
		{
			name:  "fresh notice keeps stale ones too",
			issue: pastDue,
			notes: []tracker.Note{notice(500, 50*time.Hour), notice(501, 10*time.Hour)},
		},
		{
			name:            "first notice is posted",
			issue:           pastDue,
			notes:           []tracker.Note{{ID: 9, Body: "hello"}},
			expected:        &events.Change{Key: events.KeyPastDueNote, Value: NoticeCreated},
			expectedCreates: 1,
		},
		{
			name:            "notices removed once the due date moves",
			issue:           tracker.Issue{IID: 4, State: tracker.StateOpened, DueDate: date("2024-06-10")},
			notes:           []tracker.Note{notice(500, 5*time.Hour), notice(501, 40*time.Hour)},
			expected:        &events.Change{Key: events.KeyPastDueNote, Value: NoticeDeleted},
			expectedDeletes: 2,
		},
		{
			name:            "notices removed from closed issues",
			issue:           tracker.Issue{IID: 4, State: tracker.StateClosed, DueDate: date("2024-06-01")},
			notes:           []tracker.Note{notice(500, 5*time.Hour)},
			expected:        &events.Change{Key: events.KeyPastDueNote, Value: NoticeDeleted},
			expectedDeletes: 1,
		},
		{
			name:  "no due date and no notices",
			issue: tracker.Issue{IID: 4, State: tracker.StateOpened},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, tr := setup(tt.issue, DefaultConfig())
			for _, n := range tt.notes {
				tr.AddNote(tt.issue.IID, n)
			}

			change, err := r.NotifyPastDue(context.Background(), tt.issue, tr.Notes(tt.issue.IID))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, change)
			assert.Equal(t, tt.expectedDeletes, tr.CallCount("DeleteNote"))
			assert.Equal(t, tt.expectedCreates, tr.CallCount("CreateNote"))
		})
	}
}

func TestNotifyPastDue_NoticeBody(t *testing.T) {
	issue := tracker.Issue{
		IID:       4,
		State:     tracker.StateOpened,
		DueDate:   date("2024-06-01"),
		Assignees: []tracker.User{{ID: 1, Username: "alice"}, {ID: 2}},
	}
	r, tr := setup(issue, DefaultConfig())

	_, err := r.NotifyPastDue(context.Background(), issue, nil)
	require.NoError(t, err)

	notes := tr.Notes(4)
	require.Len(t, notes, 1)
	assert.Equal(t, PastDueNoticePrefix+" :alarm_clock: @alice, #2 The issue is past due. :cold_sweat:", notes[0].Body)
	assert.True(t, IsPastDueNotice(notes[0].Body))

	// Posted notice is fresh on the next pass
	tr.ResetCalls()
	change, err := r.NotifyPastDue(context.Background(), issue, tr.Notes(4))
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.Equal(t, 0, tr.MutationCount())
}

func TestIsPastDue(t *testing.T) {
	r, _ := setup(tracker.Issue{IID: 1}, DefaultConfig())

	assert.True(t, r.IsPastDue(tracker.Issue{State: tracker.StateOpened, DueDate: date("2024-06-09")}))
	assert.False(t, r.IsPastDue(tracker.Issue{State: tracker.StateOpened, DueDate: date("2024-06-10")}))
	assert.False(t, r.IsPastDue(tracker.Issue{State: tracker.StateClosed, DueDate: date("2024-06-01")}))
	assert.False(t, r.IsPastDue(tracker.Issue{State: tracker.StateOpened}))
}
