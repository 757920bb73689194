package tracker

import (
	"slices"
	"strconv"
	"time"
)

// IssueState is the lifecycle state of an issue as reported by GitLab.
type IssueState string

const (
	// StateOpened is GitLab's name for an open issue.
	StateOpened IssueState = "opened"

	// StateClosed marks a closed issue.
	StateClosed IssueState = "closed"
)

// StateEvent values accepted by IssuePatch.StateEvent.
const (
	StateEventClose  = "close"
	StateEventReopen = "reopen"
)

// LabelAction is the kind of a label history event.
type LabelAction string

const (
	LabelActionAdd    LabelAction = "add"
	LabelActionRemove LabelAction = "remove"
)

// User identifies a tracker account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Mention returns the user as an @-mention, falling back to the numeric ID
// when the username is unknown.
func (u User) Mention() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return "#" + strconv.Itoa(u.ID)
}

// MilestoneRef is the milestone an issue is attached to.
type MilestoneRef struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Issue is the fixed record shape the reconciliation engine works on.
// Optional tracker fields are pointers; absent values are nil.
type Issue struct {
	IID              int           `json:"iid"`
	Title            string        `json:"title"`
	WebURL           string        `json:"webUrl"`
	State            IssueState    `json:"state"`
	Labels           []string      `json:"labels"`
	Assignees        []User        `json:"assignees"`
	Confidential     bool          `json:"confidential"`
	DiscussionLocked bool          `json:"discussionLocked"`
	DueDate          *time.Time    `json:"dueDate,omitempty"`
	Milestone        *MilestoneRef `json:"milestone,omitempty"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	ClosedBy         *User         `json:"closedBy,omitempty"`
}

// IsClosed reports whether the issue is closed.
func (i Issue) IsClosed() bool {
	return i.State == StateClosed
}

// HasLabel reports whether the issue carries the given label.
func (i Issue) HasLabel(name string) bool {
	return slices.Contains(i.Labels, name)
}

// Clone returns a deep copy so callers can mutate the copy freely.
func (i Issue) Clone() Issue {
	c := i
	c.Labels = slices.Clone(i.Labels)
	c.Assignees = slices.Clone(i.Assignees)
	if i.DueDate != nil {
		d := *i.DueDate
		c.DueDate = &d
	}
	if i.Milestone != nil {
		m := *i.Milestone
		c.Milestone = &m
	}
	if i.ClosedBy != nil {
		u := *i.ClosedBy
		c.ClosedBy = &u
	}
	return c
}

// NewIssue describes an issue to create.
type NewIssue struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	AssigneeIDs []int      `json:"assigneeIds,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Note is a comment on an issue.
type Note struct {
	ID        int       `json:"id"`
	Body      string    `json:"body"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LabelEvent is one entry of an issue's label history.
type LabelEvent struct {
	Label     string      `json:"label"`
	Action    LabelAction `json:"action"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Milestone is a project milestone.
type Milestone struct {
	ID      int        `json:"id"`
	IID     int        `json:"iid"`
	Title   string     `json:"title"`
	State   string     `json:"state"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

// IssueFilter selects the issues returned by Client.ListIssues.
// Zero values mean "no restriction".
type IssueFilter struct {
	// State is "opened", "closed" or "all" (empty is treated as "all").
	State string
	// Labels restricts to issues carrying all of these labels.
	Labels []string
	// UpdatedAfter / UpdatedBefore bound the update time window.
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
	// IIDs restricts to an explicit set of issues.
	IIDs []int
}

// MilestoneFilter selects the milestones returned by Client.ListMilestones.
type MilestoneFilter struct {
	// State is "active", "closed" or empty for all.
	State string
	// Title restricts to an exact title.
	Title string
}

// IssuePatch is a partial issue update. Nil fields are left untouched.
type IssuePatch struct {
	StateEvent       *string  `json:"stateEvent,omitempty"`
	DiscussionLocked *bool    `json:"discussionLocked,omitempty"`
	Confidential     *bool    `json:"confidential,omitempty"`
	AssigneeIDs      *[]int   `json:"assigneeIds,omitempty"`
	MilestoneID      *int     `json:"milestoneId,omitempty"`
	AddLabels        []string `json:"addLabels,omitempty"`
	RemoveLabels     []string `json:"removeLabels,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p IssuePatch) IsEmpty() bool {
	return p.StateEvent == nil && p.DiscussionLocked == nil && p.Confidential == nil &&
		p.AssigneeIDs == nil && p.MilestoneID == nil &&
		len(p.AddLabels) == 0 && len(p.RemoveLabels) == 0
}

// ApplyTo applies the patch to an in-memory issue the way the tracker would.
// Assignees are reduced to their IDs and a milestone to its ID because the
// patch carries nothing else.
func (p IssuePatch) ApplyTo(issue *Issue) {
	if p.StateEvent != nil {
		switch *p.StateEvent {
		case StateEventClose:
			issue.State = StateClosed
		case StateEventReopen:
			issue.State = StateOpened
		}
	}
	if p.DiscussionLocked != nil {
		issue.DiscussionLocked = *p.DiscussionLocked
	}
	if p.Confidential != nil {
		issue.Confidential = *p.Confidential
	}
	if p.AssigneeIDs != nil {
		issue.Assignees = issue.Assignees[:0:0]
		for _, id := range *p.AssigneeIDs {
			issue.Assignees = append(issue.Assignees, User{ID: id})
		}
	}
	if p.MilestoneID != nil {
		if *p.MilestoneID == 0 {
			issue.Milestone = nil
		} else {
			issue.Milestone = &MilestoneRef{ID: *p.MilestoneID}
		}
	}
	if len(p.RemoveLabels) > 0 {
		issue.Labels = slices.DeleteFunc(slices.Clone(issue.Labels), func(l string) bool {
			return slices.Contains(p.RemoveLabels, l)
		})
	}
	for _, l := range p.AddLabels {
		if !slices.Contains(issue.Labels, l) {
			issue.Labels = append(issue.Labels, l)
		}
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
