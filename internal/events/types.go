package events

// Key identifies the kind of a change.
type Key string

// Change keys, in the order the orchestrator emits them.
const (
	// KeyState reports a state transition ("closed").
	KeyState Key = "state"

	// KeyLabelAdd reports one label added by label reconciliation.
	KeyLabelAdd Key = "label_add"

	// KeyLabelRemove reports one label removed by label reconciliation.
	KeyLabelRemove Key = "label_remove"

	// KeyDiscussionLocked reports that the discussion was locked.
	KeyDiscussionLocked Key = "discussion_locked"

	// KeyConfidential reports a change of the confidential flag.
	KeyConfidential Key = "confidential"

	// KeyAssignee reports the user assigned to an unassigned issue.
	KeyAssignee Key = "assignee"

	// KeyMilestone reports the milestone attached from the due date.
	KeyMilestone Key = "milestone"

	// KeyCounter reports the ledger state note action.
	KeyCounter Key = "counter"

	// KeyCounterSummary reports the ledger summary note action.
	KeyCounterSummary Key = "counter_summary"

	// KeyPastDueNote reports the past-due notice action.
	KeyPastDueNote Key = "past_due_note"
)

// Change is one applied change.
type Change struct {
	Key   Key    `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// String renders the change as "key=value".
func (c Change) String() string {
	return string(c.Key) + "=" + c.Value
}

// EventData holds contextual information for message templating.
type EventData struct {
	// IID is the project-scoped issue number.
	IID int

	// Title is the issue title.
	Title string

	// Value is the change value.
	Value string

	// DryRun marks changes that were only simulated.
	DryRun bool
}
