package labels

import (
	"context"
	"fmt"
	"slices"

	"github.com/giantswarm/housekeep/internal/rules"
	"github.com/giantswarm/housekeep/internal/tracker"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// Result is the accumulated outcome of one Reconcile call.
type Result struct {
	Changed bool     `json:"changed"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Passes  int      `json:"passes"`
}

// Plan is the diff computed by a single pass.
type Plan struct {
	Add    []string
	Remove []string
}

// IsEmpty reports whether the plan changes nothing.
func (p Plan) IsEmpty() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0
}

// Reconciler applies a rule set to issues.
type Reconciler struct {
	rules   rules.Set
	mutator Mutator
	bound   int
}

// NewReconciler creates a reconciler for the given rules. Changes are
// applied through mutator.
func NewReconciler(set rules.Set, mutator Mutator) *Reconciler {
	return &Reconciler{
		rules:   set,
		mutator: mutator,
		bound:   len(set.ReferencedLabels()),
	}
}

// Rules returns the rule set the reconciler was built with.
func (r *Reconciler) Rules() rules.Set {
	return r.rules
}

// Reconcile converges the labels of issue. events is the issue's label
// history, oldest first; it is only used to pick group survivors.
//
// On a conflict no mutation is made for the failing pass, but changes from
// earlier passes stay applied and are reported in the returned Result.
func (r *Reconciler) Reconcile(ctx context.Context, issue tracker.Issue, events []tracker.LabelEvent) (Result, error) {
	var result Result
	if r.rules.IsEmpty() {
		return result, nil
	}

	labels := slices.Clone(issue.Labels)
	closed := issue.IsClosed()
	touched := map[string]bool{}

	for pass := 1; ; pass++ {
		plan := r.plan(labels, closed, events)

		if conflicts := intersect(plan.Add, plan.Remove); len(conflicts) > 0 {
			return result, &ConflictError{IID: issue.IID, Pass: pass, Labels: conflicts}
		}

		net := Plan{
			Add:    subtract(plan.Add, touched),
			Remove: subtract(plan.Remove, touched),
		}
		if len(net.Add) != len(plan.Add) || len(net.Remove) != len(plan.Remove) {
			logging.Warn("Labels", "Issue #%d: rules want to re-toggle labels already changed in this run, ignoring them", issue.IID)
		}
		if net.IsEmpty() {
			result.Changed = len(result.Added) > 0 || len(result.Removed) > 0
			return result, nil
		}
		if result.Passes >= r.bound {
			return result, fmt.Errorf("issue #%d after %d passes: %w", issue.IID, result.Passes, ErrNoConvergence)
		}

		logging.Debug("Labels", "Issue #%d pass %d: add=%v remove=%v", issue.IID, pass, net.Add, net.Remove)
		if err := r.mutator.MutateLabels(ctx, issue.IID, net.Add, net.Remove); err != nil {
			result.Changed = len(result.Added) > 0 || len(result.Removed) > 0
			return result, fmt.Errorf("failed to apply label changes to issue #%d: %w", issue.IID, err)
		}

		labels = slices.DeleteFunc(labels, func(l string) bool { return slices.Contains(net.Remove, l) })
		labels = append(labels, net.Add...)
		for _, l := range net.Add {
			touched[l] = true
		}
		for _, l := range net.Remove {
			touched[l] = true
		}
		result.Added = append(result.Added, net.Add...)
		result.Removed = append(result.Removed, net.Remove...)
		result.Passes++
	}
}

// Evaluate computes the first pass for issue without applying anything.
func (r *Reconciler) Evaluate(issue tracker.Issue, events []tracker.LabelEvent) (Plan, error) {
	plan := r.plan(issue.Labels, issue.IsClosed(), events)
	if conflicts := intersect(plan.Add, plan.Remove); len(conflicts) > 0 {
		return plan, &ConflictError{IID: issue.IID, Pass: 1, Labels: conflicts}
	}
	return plan, nil
}

func (r *Reconciler) plan(labels []string, closed bool, events []tracker.LabelEvent) Plan {
	var plan Plan

	if closed {
		for _, l := range r.rules.ClosedLabels {
			if slices.Contains(labels, l) && !r.rules.ClosedIncluded(l) {
				plan.Remove = appendUnique(plan.Remove, l)
			}
		}
	}

	view := func() []string {
		v := slices.DeleteFunc(slices.Clone(labels), func(l string) bool { return slices.Contains(plan.Remove, l) })
		for _, l := range plan.Add {
			if !slices.Contains(v, l) {
				v = append(v, l)
			}
		}
		return v
	}

	for _, g := range r.rules.Groups {
		if closed && !g.IncludesClosed() {
			continue
		}
		var contenders []string
		for _, l := range view() {
			if g.Contains(l) {
				contenders = append(contenders, l)
			}
		}
		switch {
		case len(contenders) > 1:
			survivor := pickSurvivor(contenders, events)
			for _, l := range contenders {
				if l != survivor {
					plan.Remove = appendUnique(plan.Remove, l)
				}
			}
		case len(contenders) == 0:
			if def, ok := g.Default(); ok {
				plan.Add = appendUnique(plan.Add, def)
			}
		}
	}

	current := view()
	for _, c := range r.rules.Categories {
		present := slices.Contains(current, c.Category)
		wanted := c.Matches(current)
		switch {
		case wanted && !present:
			plan.Add = appendUnique(plan.Add, c.Category)
		case !wanted && present:
			plan.Remove = appendUnique(plan.Remove, c.Category)
		}
	}

	return plan
}

// pickSurvivor keeps the contender with the most recent add event. Without
// any add event for a contender, the last contender in issue-label order wins.
func pickSurvivor(contenders []string, events []tracker.LabelEvent) string {
	survivor := ""
	var latest tracker.LabelEvent
	for _, e := range events {
		if e.Action != tracker.LabelActionAdd || !slices.Contains(contenders, e.Label) {
			continue
		}
		if survivor == "" || !e.CreatedAt.Before(latest.CreatedAt) {
			survivor = e.Label
			latest = e
		}
	}
	if survivor == "" {
		return contenders[len(contenders)-1]
	}
	return survivor
}

func appendUnique(list []string, l string) []string {
	if slices.Contains(list, l) {
		return list
	}
	return append(list, l)
}

func intersect(a, b []string) []string {
	var out []string
	for _, l := range a {
		if slices.Contains(b, l) {
			out = append(out, l)
		}
	}
	return out
}

func subtract(list []string, touched map[string]bool) []string {
	var out []string
	for _, l := range list {
		if !touched[l] {
			out = append(out, l)
		}
	}
	return out
}
