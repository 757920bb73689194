package mock

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/giantswarm/housekeep/internal/clock"
	"github.com/giantswarm/housekeep/internal/tracker"
)

var _ tracker.Client = (*Tracker)(nil)

// Call is one recorded invocation of a Tracker method.
type Call struct {
	Method string
	IID    int
	NoteID int
	Patch  tracker.IssuePatch
	Body   string
}

// Tracker is an in-memory tracker.Client for tests.
type Tracker struct {
	mu sync.Mutex

	clock      clock.Clock
	issues     map[int]tracker.Issue
	notes      map[int][]tracker.Note
	events     map[int][]tracker.LabelEvent
	users      map[int]tracker.User
	milestones []tracker.Milestone
	nextID     int

	calls    []Call
	failures map[string]error
}

// NewTracker creates an empty tracker. A nil clock uses real time.
func NewTracker(clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Tracker{
		clock:    clk,
		issues:   make(map[int]tracker.Issue),
		notes:    make(map[int][]tracker.Note),
		events:   make(map[int][]tracker.LabelEvent),
		users:    make(map[int]tracker.User),
		nextID:   1000,
		failures: make(map[string]error),
	}
}

// AddIssue seeds an issue. Assignees and the closer are registered as known
// users so assignee patches resolve their usernames.
func (t *Tracker) AddIssue(issue tracker.Issue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range issue.Assignees {
		t.users[u.ID] = u
	}
	if issue.ClosedBy != nil {
		t.users[issue.ClosedBy.ID] = *issue.ClosedBy
	}
	t.issues[issue.IID] = issue.Clone()
}

// AddUser registers a user so assignee patches resolve its username.
func (t *Tracker) AddUser(u tracker.User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users[u.ID] = u
}

// AddNote seeds a note. A zero ID is replaced by a generated one and zero
// timestamps default to the clock's current time.
func (t *Tracker) AddNote(iid int, note tracker.Note) tracker.Note {
	t.mu.Lock()
	defer t.mu.Unlock()
	if note.ID == 0 {
		note.ID = t.allocID()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = t.clock.Now()
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = note.CreatedAt
	}
	t.notes[iid] = append(t.notes[iid], note)
	return note
}

// AddLabelEvents seeds label history for an issue.
func (t *Tracker) AddLabelEvents(iid int, events ...tracker.LabelEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[iid] = append(t.events[iid], events...)
}

// AddMilestone seeds a milestone. A zero ID is replaced by a generated one.
func (t *Tracker) AddMilestone(m tracker.Milestone) tracker.Milestone {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m.ID == 0 {
		m.ID = t.allocID()
	}
	if m.State == "" {
		m.State = "active"
	}
	t.milestones = append(t.milestones, m)
	return m
}

// FailOn makes every subsequent call of method return err.
func (t *Tracker) FailOn(method string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[method] = err
}

// Issue returns the current stored state of an issue.
func (t *Tracker) Issue(iid int) tracker.Issue {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.issues[iid].Clone()
}

// Notes returns the current notes of an issue.
func (t *Tracker) Notes(iid int) []tracker.Note {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.notes[iid])
}

// Milestones returns the stored milestones.
func (t *Tracker) Milestones() []tracker.Milestone {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.milestones)
}

// Calls returns every recorded call in order.
func (t *Tracker) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.calls)
}

// CallCount returns how often method was called.
func (t *Tracker) CallCount(method string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// MutationCount returns the number of recorded write calls.
func (t *Tracker) MutationCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		switch c.Method {
		case "CreateIssue", "UpdateIssue", "CreateNote", "UpdateNote", "DeleteNote", "CreateMilestone":
			n++
		}
	}
	return n
}

// ResetCalls clears the recorded calls.
func (t *Tracker) ResetCalls() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

func (t *Tracker) allocID() int {
	t.nextID++
	return t.nextID
}

// record must be called with the lock held.
func (t *Tracker) record(c Call) error {
	t.calls = append(t.calls, c)
	return t.failures[c.Method]
}

func (t *Tracker) ListIssues(_ context.Context, filter tracker.IssueFilter) iter.Seq2[tracker.Issue, error] {
	return func(yield func(tracker.Issue, error) bool) {
		t.mu.Lock()
		if err := t.record(Call{Method: "ListIssues"}); err != nil {
			t.mu.Unlock()
			yield(tracker.Issue{}, err)
			return
		}
		var matched []tracker.Issue
		for _, issue := range t.issues {
			if matchesFilter(issue, filter) {
				matched = append(matched, issue.Clone())
			}
		}
		t.mu.Unlock()

		sort.Slice(matched, func(i, j int) bool { return matched[i].IID < matched[j].IID })
		for _, issue := range matched {
			if !yield(issue, nil) {
				return
			}
		}
	}
}

func matchesFilter(issue tracker.Issue, f tracker.IssueFilter) bool {
	if f.State != "" && f.State != "all" && string(issue.State) != f.State {
		return false
	}
	for _, l := range f.Labels {
		if !issue.HasLabel(l) {
			return false
		}
	}
	if len(f.IIDs) > 0 && !slices.Contains(f.IIDs, issue.IID) {
		return false
	}
	if f.UpdatedAfter != nil && issue.UpdatedAt.Before(*f.UpdatedAfter) {
		return false
	}
	if f.UpdatedBefore != nil && issue.UpdatedAt.After(*f.UpdatedBefore) {
		return false
	}
	return true
}

func (t *Tracker) GetIssue(_ context.Context, iid int) (tracker.Issue, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Method: "GetIssue", IID: iid}); err != nil {
		return tracker.Issue{}, false, err
	}
	issue, ok := t.issues[iid]
	if !ok {
		return tracker.Issue{}, false, nil
	}
	return issue.Clone(), true, nil
}

func (t *Tracker) CreateIssue(_ context.Context, issue tracker.NewIssue) (tracker.Issue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	iid := 1
	for existing := range t.issues {
		iid = max(iid, existing+1)
	}
	// The description is only observable through the recorded call.
	if err := t.record(Call{Method: "CreateIssue", IID: iid, Body: issue.Description}); err != nil {
		return tracker.Issue{}, err
	}
	created := tracker.Issue{
		IID:       iid,
		Title:     issue.Title,
		State:     tracker.StateOpened,
		Labels:    slices.Clone(issue.Labels),
		DueDate:   issue.DueDate,
		UpdatedAt: t.clock.Now(),
	}
	for _, id := range issue.AssigneeIDs {
		u, ok := t.users[id]
		if !ok {
			u = tracker.User{ID: id}
		}
		created.Assignees = append(created.Assignees, u)
	}
	t.issues[iid] = created
	return created.Clone(), nil
}

func (t *Tracker) UpdateIssue(_ context.Context, iid int, patch tracker.IssuePatch) (tracker.Issue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Method: "UpdateIssue", IID: iid, Patch: patch}); err != nil {
		return tracker.Issue{}, err
	}
	issue, ok := t.issues[iid]
	if !ok {
		return tracker.Issue{}, fmt.Errorf("issue #%d: %w", iid, tracker.ErrNotFound)
	}

	now := t.clock.Now()
	before := slices.Clone(issue.Labels)
	patch.ApplyTo(&issue)
	for i, a := range issue.Assignees {
		if u, ok := t.users[a.ID]; ok {
			issue.Assignees[i] = u
		}
	}
	if patch.MilestoneID != nil && issue.Milestone != nil {
		for _, m := range t.milestones {
			if m.ID == issue.Milestone.ID {
				issue.Milestone.Title = m.Title
			}
		}
	}
	for _, l := range issue.Labels {
		if !slices.Contains(before, l) {
			t.events[iid] = append(t.events[iid], tracker.LabelEvent{Label: l, Action: tracker.LabelActionAdd, CreatedAt: now})
		}
	}
	for _, l := range before {
		if !slices.Contains(issue.Labels, l) {
			t.events[iid] = append(t.events[iid], tracker.LabelEvent{Label: l, Action: tracker.LabelActionRemove, CreatedAt: now})
		}
	}
	issue.UpdatedAt = now
	t.issues[iid] = issue
	return issue.Clone(), nil
}

func (t *Tracker) ListNotes(_ context.Context, iid int) iter.Seq2[tracker.Note, error] {
	return func(yield func(tracker.Note, error) bool) {
		t.mu.Lock()
		err := t.record(Call{Method: "ListNotes", IID: iid})
		notes := slices.Clone(t.notes[iid])
		t.mu.Unlock()
		if err != nil {
			yield(tracker.Note{}, err)
			return
		}
		for _, n := range notes {
			if !yield(n, nil) {
				return
			}
		}
	}
}

func (t *Tracker) CreateNote(_ context.Context, iid int, body string) (tracker.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Method: "CreateNote", IID: iid, Body: body}); err != nil {
		return tracker.Note{}, err
	}
	now := t.clock.Now()
	note := tracker.Note{ID: t.allocID(), Body: body, CreatedAt: now, UpdatedAt: now}
	t.notes[iid] = append(t.notes[iid], note)
	return note, nil
}

func (t *Tracker) UpdateNote(_ context.Context, iid int, noteID int, body string) (tracker.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Method: "UpdateNote", IID: iid, NoteID: noteID, Body: body}); err != nil {
		return tracker.Note{}, err
	}
	for i, n := range t.notes[iid] {
		if n.ID == noteID {
			n.Body = body
			n.UpdatedAt = t.clock.Now()
			t.notes[iid][i] = n
			return n, nil
		}
	}
	return tracker.Note{}, fmt.Errorf("note %d: %w", noteID, tracker.ErrNotFound)
}

func (t *Tracker) DeleteNote(_ context.Context, iid int, noteID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Method: "DeleteNote", IID: iid, NoteID: noteID}); err != nil {
		return err
	}
	notes := t.notes[iid]
	for i, n := range notes {
		if n.ID == noteID {
			t.notes[iid] = slices.Delete(slices.Clone(notes), i, i+1)
			return nil
		}
	}
	return fmt.Errorf("note %d: %w", noteID, tracker.ErrNotFound)
}

func (t *Tracker) ListLabelEvents(_ context.Context, iid int) iter.Seq2[tracker.LabelEvent, error] {
	return func(yield func(tracker.LabelEvent, error) bool) {
		t.mu.Lock()
		err := t.record(Call{Method: "ListLabelEvents", IID: iid})
		events := slices.Clone(t.events[iid])
		t.mu.Unlock()
		if err != nil {
			yield(tracker.LabelEvent{}, err)
			return
		}
		for _, e := range events {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (t *Tracker) ListMilestones(_ context.Context, filter tracker.MilestoneFilter) iter.Seq2[tracker.Milestone, error] {
	return func(yield func(tracker.Milestone, error) bool) {
		t.mu.Lock()
		err := t.record(Call{Method: "ListMilestones"})
		milestones := slices.Clone(t.milestones)
		t.mu.Unlock()
		if err != nil {
			yield(tracker.Milestone{}, err)
			return
		}
		for _, m := range milestones {
			if filter.State != "" && m.State != filter.State {
				continue
			}
			if filter.Title != "" && m.Title != filter.Title {
				continue
			}
			if !yield(m, nil) {
				return
			}
		}
	}
}

func (t *Tracker) CreateMilestone(_ context.Context, title string, dueDate *time.Time) (tracker.Milestone, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.record(Call{Method: "CreateMilestone", Body: title}); err != nil {
		return tracker.Milestone{}, err
	}
	id := t.allocID()
	m := tracker.Milestone{ID: id, IID: len(t.milestones) + 1, Title: title, State: "active", DueDate: dueDate}
	t.milestones = append(t.milestones, m)
	return m, nil
}
