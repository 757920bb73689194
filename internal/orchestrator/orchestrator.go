package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/housekeep/internal/clock"
	"github.com/giantswarm/housekeep/internal/events"
	"github.com/giantswarm/housekeep/internal/labels"
	"github.com/giantswarm/housekeep/internal/ledger"
	"github.com/giantswarm/housekeep/internal/rules"
	"github.com/giantswarm/housekeep/internal/staterules"
	"github.com/giantswarm/housekeep/internal/tracker"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// DefaultMinIdle is how long an issue must be left alone before field rules
// touch it.
const DefaultMinIdle = 15 * time.Minute

// ErrIssuesFailed is returned by Run when at least one issue failed.
var ErrIssuesFailed = errors.New("some issues failed")

// Config holds the configuration for the orchestrator.
type Config struct {
	// Client is the tracker all reads and writes go through. Wrap it with
	// tracker.NewDryRunClient for dry runs.
	Client tracker.Client

	// Rules are the label rules used by the label reconciler.
	Rules rules.Set

	// State configures the state rules.
	State staterules.Config

	// Milestones is the shared milestone cache. Optional; one is created
	// from Client when nil.
	Milestones *tracker.MilestoneCache

	// Clock defaults to the real clock.
	Clock clock.Clock

	// MinIdle gates the field rules. Zero disables the gate.
	MinIdle time.Duration

	// Where is an optional expression selecting the issues Run processes.
	Where string

	// DryRun only changes the wording of log messages; the client decides
	// whether anything is written.
	DryRun bool
}

// Report is the outcome of processing one issue.
type Report struct {
	IID     int             `json:"iid"`
	Title   string          `json:"title"`
	WebURL  string          `json:"webUrl,omitempty"`
	Changes []events.Change `json:"changes"`
	Error   string          `json:"error,omitempty"`
}

// Changed reports whether anything was applied.
func (r Report) Changed() bool {
	return len(r.Changes) > 0
}

// Strings returns the changes as "key=value" strings.
func (r Report) Strings() []string {
	out := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		out = append(out, c.String())
	}
	return out
}

// RunSummary is the outcome of one Run.
type RunSummary struct {
	RunID       string         `json:"runId"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
	Processed   int            `json:"processed"`
	Changed     int            `json:"changed"`
	Filtered    int            `json:"filtered"`
	Failed      int            `json:"failed"`
	Interrupted bool           `json:"interrupted"`
	Reports     []Report       `json:"reports"`
	Metrics     MetricsSummary `json:"metrics"`
}

// Orchestrator applies all rules to issues, one issue at a time.
type Orchestrator struct {
	client     tracker.Client
	milestones *tracker.MilestoneCache
	state      *staterules.Rules
	ledger     *ledger.Engine
	clock      clock.Clock
	minIdle    time.Duration
	where      *WhereFilter
	dryRun     bool
	metrics    *Metrics

	// The label reconciler is swapped when rules are reloaded.
	mu     sync.RWMutex
	labels *labels.Reconciler
}

// New creates a new orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("orchestrator requires a tracker client")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Milestones == nil {
		cfg.Milestones = tracker.NewMilestoneCache(cfg.Client)
	}

	where, err := CompileWhere(cfg.Where)
	if err != nil {
		return nil, err
	}
	renderer, err := ledger.NewRenderer()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		client:     cfg.Client,
		milestones: cfg.Milestones,
		state:      staterules.New(cfg.Client, cfg.State, cfg.Milestones, cfg.Clock),
		ledger:     ledger.NewEngine(cfg.Client, renderer),
		clock:      cfg.Clock,
		minIdle:    cfg.MinIdle,
		where:      where,
		dryRun:     cfg.DryRun,
		metrics:    NewMetrics(),
		labels:     labels.NewReconciler(cfg.Rules, labels.TrackerMutator(cfg.Client)),
	}, nil
}

// SetRules replaces the label rules used for subsequent issues.
func (o *Orchestrator) SetRules(set rules.Set) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.labels = labels.NewReconciler(set, labels.TrackerMutator(o.client))
}

// Rules returns the label rules in use.
func (o *Orchestrator) Rules() rules.Set {
	return o.reconciler().Rules()
}

func (o *Orchestrator) reconciler() *labels.Reconciler {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.labels
}

// BeginPass drops state simulated by a previous dry-run pass so that every
// pass starts from the tracker's real state.
func (o *Orchestrator) BeginPass() {
	if r, ok := o.client.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// Metrics returns the metrics collected by this orchestrator.
func (o *Orchestrator) Metrics() *Metrics {
	return o.metrics
}

// Milestones returns the shared milestone cache.
func (o *Orchestrator) Milestones() *tracker.MilestoneCache {
	return o.milestones
}

// IsIdle reports whether field rules may touch issue.
func (o *Orchestrator) IsIdle(issue tracker.Issue) bool {
	return o.minIdle <= 0 || o.clock.Now().Sub(issue.UpdatedAt) >= o.minIdle
}

type fieldRule func(context.Context, tracker.Issue) (tracker.Issue, *events.Change, error)

// ProcessIssue applies every rule to issue and reports the applied changes.
// A label rule conflict is returned after all other steps ran; any other
// error stops processing immediately.
func (o *Orchestrator) ProcessIssue(ctx context.Context, issue tracker.Issue) (Report, error) {
	report := Report{IID: issue.IID, Title: issue.Title, WebURL: issue.WebURL}
	rec := events.NewRecorder(issue.IID, issue.Title)
	rec.SetDryRun(o.dryRun)

	finish := func(err error) (Report, error) {
		report.Changes = rec.Changes()
		if err != nil {
			report.Error = err.Error()
		}
		return report, err
	}

	idle := o.IsIdle(issue)
	if !idle {
		logging.Debug("Orchestrator", "Issue #%d was updated recently, skipping field rules", issue.IID)
	}

	apply := func(name string, rule fieldRule) error {
		if !idle {
			return nil
		}
		updated, change, err := rule(ctx, issue)
		if err != nil {
			o.metrics.RecordFailure(name, issue.IID, err.Error())
			return err
		}
		issue = updated
		if change != nil {
			rec.Record(change.Key, change.Value)
			o.metrics.RecordChange(name)
		}
		return nil
	}

	// 1. Obsolete → close
	if err := apply(RuleObsolete, o.state.CloseObsolete); err != nil {
		return finish(err)
	}

	// 2. Labels
	conflict, err := o.reconcileLabels(ctx, &issue, rec)
	if err != nil {
		return finish(err)
	}

	// 3. to 6. Field rules
	for _, step := range []struct {
		name string
		rule fieldRule
	}{
		{RuleLock, o.state.LockClosed},
		{RuleConfidential, o.state.EnforceConfidential},
		{RuleAssignee, o.state.AssignCloser},
		{RuleMilestone, o.state.AssignDueMilestone},
	} {
		if err := apply(step.name, step.rule); err != nil {
			return finish(err)
		}
	}

	// 7. Ledger
	notes, err := tracker.Collect(o.client.ListNotes(ctx, issue.IID))
	if err != nil {
		o.metrics.RecordFailure(RuleLedger, issue.IID, err.Error())
		return finish(fmt.Errorf("failed to list notes of issue #%d: %w", issue.IID, err))
	}
	outcome, err := o.ledger.Process(ctx, issue, notes)
	if err != nil {
		o.metrics.RecordFailure(RuleLedger, issue.IID, err.Error())
		return finish(err)
	}
	if outcome.Changed {
		rec.Record(events.KeyCounter, string(outcome.Action))
		o.metrics.RecordChange(RuleLedger)
	}
	if outcome.SummaryAction != ledger.ActionNone {
		rec.Record(events.KeyCounterSummary, string(outcome.SummaryAction))
	}

	// 8. Past-due notice
	change, err := o.state.NotifyPastDue(ctx, issue, notes)
	if err != nil {
		o.metrics.RecordFailure(RulePastDue, issue.IID, err.Error())
		return finish(err)
	}
	if change != nil {
		rec.Record(change.Key, change.Value)
		o.metrics.RecordChange(RulePastDue)
	}

	return finish(conflict)
}

// reconcileLabels runs the label reconciler and keeps issue.Labels in sync
// with what it applied. A rule conflict is returned as the first value so the
// caller can continue.
func (o *Orchestrator) reconcileLabels(ctx context.Context, issue *tracker.Issue, rec *events.Recorder) (conflict error, err error) {
	r := o.reconciler()
	if r.Rules().IsEmpty() {
		return nil, nil
	}

	history, err := tracker.Collect(o.client.ListLabelEvents(ctx, issue.IID))
	if err != nil {
		o.metrics.RecordFailure(RuleLabels, issue.IID, err.Error())
		return nil, fmt.Errorf("failed to list label events of issue #%d: %w", issue.IID, err)
	}

	result, err := r.Reconcile(ctx, *issue, history)
	// Passes applied before a failure are already visible on the tracker
	tracker.IssuePatch{AddLabels: result.Added, RemoveLabels: result.Removed}.ApplyTo(issue)
	for _, l := range result.Added {
		rec.Record(events.KeyLabelAdd, l)
		o.metrics.RecordChange(RuleLabels)
	}
	for _, l := range result.Removed {
		rec.Record(events.KeyLabelRemove, l)
		o.metrics.RecordChange(RuleLabels)
	}

	if err != nil {
		o.metrics.RecordFailure(RuleLabels, issue.IID, err.Error())
		if labels.IsConflict(err) {
			logging.Warn("Orchestrator", "Issue #%d: %v", issue.IID, err)
			return err, nil
		}
		return nil, err
	}
	return nil, nil
}

// ProcessIID fetches a single issue and processes it. A missing issue is
// reported as tracker.ErrNotFound.
func (o *Orchestrator) ProcessIID(ctx context.Context, iid int) (Report, error) {
	issue, found, err := o.client.GetIssue(ctx, iid)
	if err != nil {
		return Report{IID: iid, Error: err.Error()}, fmt.Errorf("failed to get issue #%d: %w", iid, err)
	}
	if !found {
		err := fmt.Errorf("issue #%d: %w", iid, tracker.ErrNotFound)
		return Report{IID: iid, Error: err.Error()}, err
	}
	return o.ProcessIssue(ctx, issue)
}

// Run processes every issue matching filter and the where expression, one
// at a time. The context is only checked between issues.
func (o *Orchestrator) Run(ctx context.Context, filter tracker.IssueFilter) (RunSummary, error) {
	summary := RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: o.clock.Now(),
		Reports:   []Report{},
	}
	logging.Info("Orchestrator", "Starting run %s", summary.RunID)

	finish := func(err error) (RunSummary, error) {
		summary.FinishedAt = o.clock.Now()
		summary.Metrics = o.metrics.GetSummary()
		if err == nil && summary.Failed > 0 {
			err = fmt.Errorf("%d of %d issues: %w", summary.Failed, summary.Processed, ErrIssuesFailed)
		}
		logging.Info("Orchestrator", "Finished run %s: %d processed, %d changed, %d failed, %d filtered",
			summary.RunID, summary.Processed, summary.Changed, summary.Failed, summary.Filtered)
		return summary, err
	}

	for issue, err := range o.client.ListIssues(ctx, filter) {
		if err != nil {
			return finish(fmt.Errorf("failed to list issues: %w", err))
		}
		if ctx.Err() != nil {
			logging.Info("Orchestrator", "Run %s interrupted before issue #%d", summary.RunID, issue.IID)
			summary.Interrupted = true
			break
		}

		matched, err := o.where.Match(issue, o.clock.Now())
		if err != nil {
			return finish(err)
		}
		if !matched {
			summary.Filtered++
			continue
		}

		report, err := o.ProcessIssue(ctx, issue)
		summary.Processed++
		if report.Changed() {
			summary.Changed++
		}
		if err != nil {
			summary.Failed++
			logging.Error("Orchestrator", err, "Failed to process issue #%d", issue.IID)
		}
		o.metrics.RecordIssue(report.Changed(), err != nil)
		summary.Reports = append(summary.Reports, report)
	}

	return finish(nil)
}

// PreviewLedger renders the ledger summary of an issue without writing. It
// also returns the currently published summary body, empty when none exists.
func (o *Orchestrator) PreviewLedger(ctx context.Context, iid int) (rendered, published string, scan ledger.Scan, err error) {
	notes, err := tracker.Collect(o.client.ListNotes(ctx, iid))
	if err != nil {
		return "", "", ledger.Scan{}, fmt.Errorf("failed to list notes of issue #%d: %w", iid, err)
	}
	rendered, scan, err = o.ledger.Preview(iid, notes)
	if err != nil {
		return "", "", scan, err
	}
	if scan.SummaryNote != nil {
		published = scan.SummaryNote.Body
	}
	return rendered, published, scan, nil
}
