package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/giantswarm/housekeep/internal/tracker"
)

// issueEnv is the environment a where expression is evaluated against.
type issueEnv struct {
	IID          int      `expr:"iid"`
	Title        string   `expr:"title"`
	State        string   `expr:"state"`
	Labels       []string `expr:"labels"`
	Assignees    []string `expr:"assignees"`
	Confidential bool     `expr:"confidential"`
	Locked       bool     `expr:"locked"`
	DueDate      string   `expr:"dueDate"`
	Milestone    string   `expr:"milestone"`
	IdleHours    float64  `expr:"idleHours"`
}

func newIssueEnv(issue tracker.Issue, now time.Time) issueEnv {
	env := issueEnv{
		IID:          issue.IID,
		Title:        issue.Title,
		State:        string(issue.State),
		Labels:       append([]string{}, issue.Labels...),
		Assignees:    []string{},
		Confidential: issue.Confidential,
		Locked:       issue.DiscussionLocked,
		IdleHours:    now.Sub(issue.UpdatedAt).Hours(),
	}
	for _, u := range issue.Assignees {
		env.Assignees = append(env.Assignees, u.Username)
	}
	if issue.DueDate != nil {
		env.DueDate = issue.DueDate.Format("2006-01-02")
	}
	if issue.Milestone != nil {
		env.Milestone = issue.Milestone.Title
	}
	return env
}

// WhereFilter is a compiled where expression. A nil filter matches every issue.
type WhereFilter struct {
	source  string
	program *vm.Program
}

// CompileWhere compiles a boolean expression over issue fields. An empty
// source yields a nil filter.
func CompileWhere(source string) (*WhereFilter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(issueEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid where expression %q: %w", source, err)
	}
	return &WhereFilter{source: source, program: program}, nil
}

// String returns the expression source.
func (f *WhereFilter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match evaluates the expression against issue.
func (f *WhereFilter) Match(issue tracker.Issue, now time.Time) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, newIssueEnv(issue, now))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate where expression on issue #%d: %w", issue.IID, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("where expression returned %T, expected bool", out)
	}
	return matched, nil
}
