package tracker

import (
	"context"
	"iter"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giantswarm/housekeep/internal/clock"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// DryRunClient forwards reads to the wrapped client and simulates every
// write. Simulated writes are remembered so later reads in the same run see
// them, which keeps the reconciliation code paths identical to a real run.
type DryRunClient struct {
	inner Client
	clock clock.Clock

	mu         sync.Mutex
	issues     map[int]Issue
	notes      map[int]*noteOverlay
	milestones []Milestone
	nextID     int
}

type noteOverlay struct {
	created []Note
	updated map[int]string
	deleted map[int]bool
}

// NewDryRunClient wraps inner so that no mutating call reaches the tracker.
// Synthetic notes and milestones get negative IDs.
func NewDryRunClient(inner Client, clk clock.Clock) *DryRunClient {
	if clk == nil {
		clk = clock.Real{}
	}
	return &DryRunClient{
		inner:  inner,
		clock:  clk,
		issues: make(map[int]Issue),
		notes:  make(map[int]*noteOverlay),
		nextID: -1,
	}
}

// Reset forgets every simulated write. Reads afterwards see the tracker as it
// really is.
func (d *DryRunClient) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.issues = make(map[int]Issue)
	d.notes = make(map[int]*noteOverlay)
	d.milestones = nil
}

func (d *DryRunClient) allocID() int {
	id := d.nextID
	d.nextID--
	return id
}

func (d *DryRunClient) overlay(iid int) *noteOverlay {
	o, ok := d.notes[iid]
	if !ok {
		o = &noteOverlay{updated: make(map[int]string), deleted: make(map[int]bool)}
		d.notes[iid] = o
	}
	return o
}

func (d *DryRunClient) ListIssues(ctx context.Context, filter IssueFilter) iter.Seq2[Issue, error] {
	return func(yield func(Issue, error) bool) {
		for issue, err := range d.inner.ListIssues(ctx, filter) {
			if err == nil {
				d.mu.Lock()
				if patched, ok := d.issues[issue.IID]; ok {
					issue = patched.Clone()
				}
				d.mu.Unlock()
			}
			if !yield(issue, err) {
				return
			}
		}
	}
}

func (d *DryRunClient) GetIssue(ctx context.Context, iid int) (Issue, bool, error) {
	d.mu.Lock()
	if issue, ok := d.issues[iid]; ok {
		d.mu.Unlock()
		return issue.Clone(), true, nil
	}
	d.mu.Unlock()
	return d.inner.GetIssue(ctx, iid)
}

// CreateIssue simulates a new issue with a negative IID. It is visible to
// GetIssue but not to ListIssues.
func (d *DryRunClient) CreateIssue(_ context.Context, issue NewIssue) (Issue, error) {
	logging.Info("Tracker", "[dry-run] Would create issue %q", issue.Title)
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	created := Issue{
		IID:       d.allocID(),
		Title:     issue.Title,
		State:     StateOpened,
		Labels:    slices.Clone(issue.Labels),
		DueDate:   issue.DueDate,
		UpdatedAt: now,
	}
	for _, id := range issue.AssigneeIDs {
		created.Assignees = append(created.Assignees, User{ID: id})
	}
	d.issues[created.IID] = created.Clone()
	return created, nil
}

func (d *DryRunClient) UpdateIssue(ctx context.Context, iid int, patch IssuePatch) (Issue, error) {
	issue, found, err := d.GetIssue(ctx, iid)
	if err != nil {
		return Issue{}, err
	}
	if !found {
		return Issue{}, ErrNotFound
	}
	logging.Info("Tracker", "[dry-run] Would update issue #%d: %s", iid, describePatch(patch))
	patch.ApplyTo(&issue)
	issue.UpdatedAt = d.clock.Now()

	d.mu.Lock()
	d.issues[iid] = issue.Clone()
	d.mu.Unlock()
	return issue, nil
}

func (d *DryRunClient) ListNotes(ctx context.Context, iid int) iter.Seq2[Note, error] {
	return func(yield func(Note, error) bool) {
		d.mu.Lock()
		o := d.overlay(iid)
		d.mu.Unlock()

		for note, err := range d.inner.ListNotes(ctx, iid) {
			if err != nil {
				yield(note, err)
				return
			}
			d.mu.Lock()
			deleted := o.deleted[note.ID]
			body, updated := o.updated[note.ID]
			d.mu.Unlock()
			if deleted {
				continue
			}
			if updated {
				note.Body = body
			}
			if !yield(note, nil) {
				return
			}
		}

		d.mu.Lock()
		created := make([]Note, 0, len(o.created))
		for _, n := range o.created {
			if o.deleted[n.ID] {
				continue
			}
			if body, ok := o.updated[n.ID]; ok {
				n.Body = body
			}
			created = append(created, n)
		}
		d.mu.Unlock()
		for _, n := range created {
			if !yield(n, nil) {
				return
			}
		}
	}
}

func (d *DryRunClient) CreateNote(_ context.Context, iid int, body string) (Note, error) {
	logging.Info("Tracker", "[dry-run] Would create note on issue #%d (%d bytes)", iid, len(body))
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	note := Note{ID: d.allocID(), Body: body, CreatedAt: now, UpdatedAt: now}
	o := d.overlay(iid)
	o.created = append(o.created, note)
	return note, nil
}

func (d *DryRunClient) UpdateNote(_ context.Context, iid int, noteID int, body string) (Note, error) {
	logging.Info("Tracker", "[dry-run] Would update note %d on issue #%d (%d bytes)", noteID, iid, len(body))
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlay(iid).updated[noteID] = body
	return Note{ID: noteID, Body: body, UpdatedAt: now}, nil
}

func (d *DryRunClient) DeleteNote(_ context.Context, iid int, noteID int) error {
	logging.Info("Tracker", "[dry-run] Would delete note %d on issue #%d", noteID, iid)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlay(iid).deleted[noteID] = true
	return nil
}

func (d *DryRunClient) ListLabelEvents(ctx context.Context, iid int) iter.Seq2[LabelEvent, error] {
	return d.inner.ListLabelEvents(ctx, iid)
}

func (d *DryRunClient) ListMilestones(ctx context.Context, filter MilestoneFilter) iter.Seq2[Milestone, error] {
	return func(yield func(Milestone, error) bool) {
		for m, err := range d.inner.ListMilestones(ctx, filter) {
			if !yield(m, err) || err != nil {
				return
			}
		}
		d.mu.Lock()
		created := append([]Milestone(nil), d.milestones...)
		d.mu.Unlock()
		for _, m := range created {
			if filter.Title != "" && m.Title != filter.Title {
				continue
			}
			if !yield(m, nil) {
				return
			}
		}
	}
}

func (d *DryRunClient) CreateMilestone(_ context.Context, title string, dueDate *time.Time) (Milestone, error) {
	logging.Info("Tracker", "[dry-run] Would create milestone %q", title)

	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.allocID()
	m := Milestone{ID: id, IID: id, Title: title, State: "active", DueDate: dueDate}
	d.milestones = append(d.milestones, m)
	return m, nil
}

func describePatch(p IssuePatch) string {
	var parts []string
	if p.StateEvent != nil {
		parts = append(parts, "state_event="+*p.StateEvent)
	}
	if p.DiscussionLocked != nil {
		parts = append(parts, "discussion_locked="+strconv.FormatBool(*p.DiscussionLocked))
	}
	if p.Confidential != nil {
		parts = append(parts, "confidential="+strconv.FormatBool(*p.Confidential))
	}
	if p.AssigneeIDs != nil {
		ids := make([]string, 0, len(*p.AssigneeIDs))
		for _, id := range *p.AssigneeIDs {
			ids = append(ids, strconv.Itoa(id))
		}
		parts = append(parts, "assignee_ids=["+strings.Join(ids, ",")+"]")
	}
	if p.MilestoneID != nil {
		parts = append(parts, "milestone_id="+strconv.Itoa(*p.MilestoneID))
	}
	if len(p.AddLabels) > 0 {
		parts = append(parts, "add_labels="+strings.Join(p.AddLabels, ","))
	}
	if len(p.RemoveLabels) > 0 {
		parts = append(parts, "remove_labels="+strings.Join(p.RemoveLabels, ","))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, " ")
}
