package labels

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRuleConflict is wrapped by ConflictError.
	ErrRuleConflict = errors.New("label rules conflict")

	// ErrNoConvergence is returned when reconciliation exceeds its pass bound.
	ErrNoConvergence = errors.New("label reconciliation did not converge")
)

// ConflictError reports labels that the rules queued for both addition and
// removal in the same pass.
type ConflictError struct {
	IID    int
	Pass   int
	Labels []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("label rules conflict on issue #%d (pass %d): %s queued for both addition and removal",
		e.IID, e.Pass, strings.Join(e.Labels, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrRuleConflict
}

// IsConflict reports whether err is a label rule conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRuleConflict)
}
