package tracker

import (
	"context"
	"errors"
	"iter"
	"time"
)

// ErrNotFound is returned by the tracker when a resource does not exist.
// GetIssue converts it into a found=false result instead.
var ErrNotFound = errors.New("not found")

// Client is the capability set the reconciliation engine consumes from the
// issue tracker. Pagination is handled inside the implementation; callers
// see flat lazy sequences. Implementations never retry on their own.
type Client interface {
	// ListIssues streams the issues matching the filter.
	ListIssues(ctx context.Context, filter IssueFilter) iter.Seq2[Issue, error]

	// GetIssue fetches a single issue. A missing issue yields found=false
	// and a nil error.
	GetIssue(ctx context.Context, iid int) (Issue, bool, error)

	CreateIssue(ctx context.Context, issue NewIssue) (Issue, error)

	// UpdateIssue applies a partial update and returns the new canonical issue.
	UpdateIssue(ctx context.Context, iid int, patch IssuePatch) (Issue, error)

	ListNotes(ctx context.Context, iid int) iter.Seq2[Note, error]
	CreateNote(ctx context.Context, iid int, body string) (Note, error)
	UpdateNote(ctx context.Context, iid int, noteID int, body string) (Note, error)
	DeleteNote(ctx context.Context, iid int, noteID int) error

	// ListLabelEvents streams the label history of an issue, oldest first.
	ListLabelEvents(ctx context.Context, iid int) iter.Seq2[LabelEvent, error]

	ListMilestones(ctx context.Context, filter MilestoneFilter) iter.Seq2[Milestone, error]
	CreateMilestone(ctx context.Context, title string, dueDate *time.Time) (Milestone, error)
}

// Collect drains a lazy sequence into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
