package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/giantswarm/housekeep/internal/clock"
	"github.com/giantswarm/housekeep/internal/tracker"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// DefaultLabel marks the issues that belong to recurring tasks.
const DefaultLabel = "Recurring"

const pingSuffix = "Ping...? :sleeping:"

// Action is what a run did for one task.
type Action string

const (
	ActionCreated Action = "created"
	ActionPinged  Action = "pinged"
	ActionFailed  Action = "failed"
)

// Result describes the outcome for one task.
type Result struct {
	Key        string `json:"key"`
	IID        int    `json:"iid,omitempty"`
	Action     Action `json:"action"`
	BotCounter int    `json:"botcounter,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report is the outcome of running a collection.
type Report struct {
	Results []Result `json:"results"`
	Created int      `json:"created"`
	Pinged  int      `json:"pinged"`
	Failed  int      `json:"failed"`
}

func (r Report) String() string {
	var b strings.Builder
	for _, res := range r.Results {
		switch res.Action {
		case ActionFailed:
			fmt.Fprintf(&b, "%s: failed: %s\n", res.Key, res.Error)
		default:
			fmt.Fprintf(&b, "%s: %s issue #%d (raised %d times)\n", res.Key, res.Action, res.IID, res.BotCounter)
		}
	}
	fmt.Fprintf(&b, "%d created, %d pinged, %d failed", r.Created, r.Pinged, r.Failed)
	return b.String()
}

// Config configures a Runner.
type Config struct {
	Client tracker.Client
	// Label is added to every task issue. Empty means DefaultLabel.
	Label  string
	Clock  clock.Clock
}

// Runner raises the tasks of a collection.
type Runner struct {
	client tracker.Client
	label  string
	clock  clock.Clock
}

// NewRunner creates a runner writing through cfg.Client.
func NewRunner(cfg Config) *Runner {
	if cfg.Label == "" {
		cfg.Label = DefaultLabel
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	return &Runner{client: cfg.Client, label: cfg.Label, clock: cfg.Clock}
}

// openTask is an open task issue together with its state note.
type openTask struct {
	issue tracker.Issue
	note  tracker.Note
	state State
}

// Run raises every task. A task that fails is reported and does not stop
// the others; the returned error covers failures to look up open issues.
func (r *Runner) Run(ctx context.Context, tasks []Task) (Report, error) {
	var report Report

	open, err := r.openTasks(ctx)
	if err != nil {
		return report, err
	}

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var res Result
		if existing, ok := open[task.Key]; ok {
			res, err = r.ping(ctx, existing)
		} else {
			res, err = r.create(ctx, task)
		}
		res.Key = task.Key
		if err != nil {
			logging.Error("Tasks", err, "Task %s failed", task.Key)
			res.Action, res.Error = ActionFailed, err.Error()
		}

		switch res.Action {
		case ActionCreated:
			report.Created++
		case ActionPinged:
			report.Pinged++
		case ActionFailed:
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// openTasks indexes the open task issues by key. When several issues carry
// the same key the oldest one wins.
func (r *Runner) openTasks(ctx context.Context) (map[string]openTask, error) {
	issues, err := tracker.Collect(r.client.ListIssues(ctx, tracker.IssueFilter{
		State:  string(tracker.StateOpened),
		Labels: []string{r.label},
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list task issues: %w", err)
	}
	slices.SortFunc(issues, func(a, b tracker.Issue) int { return a.IID - b.IID })

	open := make(map[string]openTask)
	for _, issue := range issues {
		notes, err := tracker.Collect(r.client.ListNotes(ctx, issue.IID))
		if err != nil {
			return nil, err
		}
		note, state, ok := latestState(issue.IID, notes)
		if !ok {
			continue
		}
		if other, dup := open[state.Key]; dup {
			logging.Warn("Tasks", "Issue #%d repeats task %s of issue #%d, ignoring it", issue.IID, state.Key, other.issue.IID)
			continue
		}
		open[state.Key] = openTask{issue: issue, note: note, state: state}
	}
	return open, nil
}

// latestState returns the most recently updated parseable state note.
func latestState(iid int, notes []tracker.Note) (tracker.Note, State, bool) {
	var (
		best  tracker.Note
		state State
		found bool
	)
	for _, n := range notes {
		s, ok, err := ParseState(n.Body)
		if err != nil {
			logging.Warn("Tasks", "Issue #%d: ignoring malformed task state in note %d: %v", iid, n.ID, err)
			continue
		}
		if !ok {
			continue
		}
		if !found || n.UpdatedAt.After(best.UpdatedAt) {
			best, state, found = n, s, true
		}
	}
	return best, state, found
}

func (r *Runner) create(ctx context.Context, task Task) (Result, error) {
	labels := slices.Clone(task.Labels)
	if !slices.Contains(labels, r.label) {
		labels = append(labels, r.label)
	}
	issue := tracker.NewIssue{
		Title:       task.Title,
		Description: task.Description,
		Labels:      labels,
		AssigneeIDs: task.Assignees,
	}
	if task.DueDays > 0 {
		due := r.clock.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, task.DueDays)
		issue.DueDate = &due
	}

	created, err := r.client.CreateIssue(ctx, issue)
	if err != nil {
		return Result{}, err
	}
	state := State{Key: task.Key, BotCounter: 1}
	body, err := RenderState(state)
	if err != nil {
		return Result{}, err
	}
	if _, err := r.client.CreateNote(ctx, created.IID, body); err != nil {
		return Result{IID: created.IID}, fmt.Errorf("issue #%d created without task state: %w", created.IID, err)
	}

	logging.Info("Tasks", "Created issue #%d for task %s", created.IID, task.Key)
	return Result{IID: created.IID, Action: ActionCreated, BotCounter: state.BotCounter}, nil
}

func (r *Runner) ping(ctx context.Context, t openTask) (Result, error) {
	iid := t.issue.IID
	state := t.state

	if state.PingNote != 0 {
		// The ping may already be gone; a stale one is only noise.
		if err := r.client.DeleteNote(ctx, iid, state.PingNote); err != nil {
			logging.Warn("Tasks", "Issue #%d: could not delete previous ping %d: %v", iid, state.PingNote, err)
		}
	}

	note, err := r.client.CreateNote(ctx, iid, pingBody(t.issue.Assignees))
	if err != nil {
		return Result{IID: iid}, fmt.Errorf("failed to ping issue #%d: %w", iid, err)
	}
	state.PingNote = note.ID
	state.BotCounter++

	body, err := RenderState(state)
	if err != nil {
		return Result{IID: iid}, err
	}
	if _, err := r.client.UpdateNote(ctx, iid, t.note.ID, body); err != nil {
		return Result{IID: iid}, fmt.Errorf("failed to update task state of issue #%d: %w", iid, err)
	}

	logging.Info("Tasks", "Pinged issue #%d for task %s", iid, state.Key)
	return Result{IID: iid, Action: ActionPinged, BotCounter: state.BotCounter}, nil
}

func pingBody(assignees []tracker.User) string {
	if len(assignees) == 0 {
		return pingSuffix
	}
	mentions := make([]string, len(assignees))
	for i, u := range assignees {
		mentions[i] = u.Mention()
	}
	return strings.Join(mentions, ", ") + " " + pingSuffix
}
