package labels

import (
	"context"

	"github.com/giantswarm/housekeep/internal/tracker"
)

// Mutator applies one pass worth of label changes to an issue.
type Mutator interface {
	MutateLabels(ctx context.Context, iid int, add, remove []string) error
}

// MutatorFunc adapts a function to the Mutator interface.
type MutatorFunc func(ctx context.Context, iid int, add, remove []string) error

func (f MutatorFunc) MutateLabels(ctx context.Context, iid int, add, remove []string) error {
	return f(ctx, iid, add, remove)
}

// TrackerMutator applies label changes through a single UpdateIssue call.
func TrackerMutator(client tracker.Client) Mutator {
	return MutatorFunc(func(ctx context.Context, iid int, add, remove []string) error {
		_, err := client.UpdateIssue(ctx, iid, tracker.IssuePatch{
			AddLabels:    add,
			RemoveLabels: remove,
		})
		return err
	})
}
