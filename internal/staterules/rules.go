package staterules

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/giantswarm/housekeep/internal/clock"
	"github.com/giantswarm/housekeep/internal/events"
	"github.com/giantswarm/housekeep/internal/tracker"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// Past-due notice outcomes reported as the value of events.KeyPastDueNote.
const (
	NoticeCreated    = "created"
	NoticeCreatedNew = "created_new"
	NoticeDeleted    = "deleted"
)

// Rules applies the state rules through a tracker client.
type Rules struct {
	client     tracker.Client
	cfg        Config
	milestones *tracker.MilestoneCache
	clock      clock.Clock
}

// New creates the state rules. milestones may be nil when the due-milestone
// rule is disabled; a nil clock uses real time.
func New(client tracker.Client, cfg Config, milestones *tracker.MilestoneCache, clk clock.Clock) *Rules {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Rules{
		client:     client,
		cfg:        cfg.withDefaults(),
		milestones: milestones,
		clock:      clk,
	}
}

// Config returns the effective configuration.
func (r *Rules) Config() Config {
	return r.cfg
}

func (r *Rules) update(ctx context.Context, issue tracker.Issue, patch tracker.IssuePatch, what string) (tracker.Issue, error) {
	updated, err := r.client.UpdateIssue(ctx, issue.IID, patch)
	if err != nil {
		return issue, fmt.Errorf("failed to %s issue #%d: %w", what, issue.IID, err)
	}
	return updated, nil
}

// CloseObsolete closes an open issue that carries the obsolete label.
func (r *Rules) CloseObsolete(ctx context.Context, issue tracker.Issue) (tracker.Issue, *events.Change, error) {
	if r.cfg.ObsoleteLabel == "" || issue.IsClosed() || !issue.HasLabel(r.cfg.ObsoleteLabel) {
		return issue, nil, nil
	}
	updated, err := r.update(ctx, issue, tracker.IssuePatch{StateEvent: tracker.Ptr(tracker.StateEventClose)}, "close")
	if err != nil {
		return issue, nil, err
	}
	return updated, &events.Change{Key: events.KeyState, Value: string(tracker.StateClosed)}, nil
}

// LockClosed locks the discussion of a closed issue.
func (r *Rules) LockClosed(ctx context.Context, issue tracker.Issue) (tracker.Issue, *events.Change, error) {
	if !issue.IsClosed() || issue.DiscussionLocked {
		return issue, nil, nil
	}
	updated, err := r.update(ctx, issue, tracker.IssuePatch{DiscussionLocked: tracker.Ptr(true)}, "lock")
	if err != nil {
		return issue, nil, err
	}
	return updated, &events.Change{Key: events.KeyDiscussionLocked, Value: "true"}, nil
}

// ShouldBeConfidential reports the confidential flag the policy wants.
func (r *Rules) ShouldBeConfidential(issue tracker.Issue) bool {
	if issue.IsClosed() {
		return true
	}
	if r.cfg.PublicLabel == "" {
		return issue.Confidential
	}
	return !issue.HasLabel(r.cfg.PublicLabel)
}

// EnforceConfidential toggles the confidential flag when it disagrees with
// the policy.
func (r *Rules) EnforceConfidential(ctx context.Context, issue tracker.Issue) (tracker.Issue, *events.Change, error) {
	should := r.ShouldBeConfidential(issue)
	if should == issue.Confidential {
		return issue, nil, nil
	}
	updated, err := r.update(ctx, issue, tracker.IssuePatch{Confidential: tracker.Ptr(should)}, "set confidential on")
	if err != nil {
		return issue, nil, err
	}
	return updated, &events.Change{Key: events.KeyConfidential, Value: strconv.FormatBool(should)}, nil
}

// AssignCloser assigns the closing user, or the fallback assignee when the
// closer is unknown, to a closed issue without assignees.
func (r *Rules) AssignCloser(ctx context.Context, issue tracker.Issue) (tracker.Issue, *events.Change, error) {
	if !issue.IsClosed() || len(issue.Assignees) > 0 {
		return issue, nil, nil
	}

	var assignee tracker.User
	switch {
	case issue.ClosedBy != nil:
		assignee = *issue.ClosedBy
	case r.cfg.FallbackAssignee > 0:
		assignee = tracker.User{ID: r.cfg.FallbackAssignee}
	default:
		return issue, nil, nil
	}

	updated, err := r.update(ctx, issue, tracker.IssuePatch{AssigneeIDs: &[]int{assignee.ID}}, "assign")
	if err != nil {
		return issue, nil, err
	}
	if assignee.Username == "" {
		for _, u := range updated.Assignees {
			if u.ID == assignee.ID {
				assignee = u
			}
		}
	}
	return updated, &events.Change{Key: events.KeyAssignee, Value: userLabel(assignee)}, nil
}

func userLabel(u tracker.User) string {
	if u.Username != "" {
		return u.Username
	}
	return "#" + strconv.Itoa(u.ID)
}

// AssignDueMilestone attaches the milestone named after the due date to an
// open issue without milestone, creating the milestone when needed.
func (r *Rules) AssignDueMilestone(ctx context.Context, issue tracker.Issue) (tracker.Issue, *events.Change, error) {
	if !r.cfg.DueMilestone || r.milestones == nil || issue.IsClosed() || issue.DueDate == nil || issue.Milestone != nil {
		return issue, nil, nil
	}

	title := issue.DueDate.UTC().Format(r.cfg.MilestoneTitleFormat)
	m, created, err := r.milestones.Ensure(ctx, title, nil)
	if err != nil {
		return issue, nil, fmt.Errorf("failed to resolve milestone %q: %w", title, err)
	}
	if created {
		logging.Info("StateRules", "Created milestone %q for issue #%d", title, issue.IID)
	}

	updated, err := r.update(ctx, issue, tracker.IssuePatch{MilestoneID: tracker.Ptr(m.ID)}, "attach milestone to")
	if err != nil {
		return issue, nil, err
	}
	return updated, &events.Change{Key: events.KeyMilestone, Value: title}, nil
}

// IsPastDueNotice reports whether a note body is a past-due notice.
func IsPastDueNotice(body string) bool {
	return strings.HasPrefix(body, PastDueNoticePrefix)
}

// IsPastDue reports whether the issue is open and its due date lies at
// least PastDueAfter in the past.
func (r *Rules) IsPastDue(issue tracker.Issue) bool {
	if issue.IsClosed() || issue.DueDate == nil {
		return false
	}
	return r.clock.Now().Sub(*issue.DueDate) >= r.cfg.PastDueAfter
}

// NoticeBody renders the past-due notice for issue.
func NoticeBody(issue tracker.Issue) string {
	var b strings.Builder
	b.WriteString(PastDueNoticePrefix)
	b.WriteString(" :alarm_clock: ")
	mentions := make([]string, 0, len(issue.Assignees))
	for _, u := range issue.Assignees {
		mentions = append(mentions, u.Mention())
	}
	if len(mentions) > 0 {
		b.WriteString(strings.Join(mentions, ", "))
		b.WriteString(" ")
	}
	b.WriteString("The issue is past due. :cold_sweat:")
	return b.String()
}

// NotifyPastDue keeps exactly one fresh past-due notice on past-due issues
// and removes all notices from every other issue. notes are the issue's
// current notes.
func (r *Rules) NotifyPastDue(ctx context.Context, issue tracker.Issue, notes []tracker.Note) (*events.Change, error) {
	var notices []tracker.Note
	for _, n := range notes {
		if IsPastDueNotice(n.Body) {
			notices = append(notices, n)
		}
	}

	if !r.IsPastDue(issue) {
		if len(notices) == 0 {
			return nil, nil
		}
		if err := r.deleteNotices(ctx, issue.IID, notices); err != nil {
			return nil, err
		}
		return &events.Change{Key: events.KeyPastDueNote, Value: NoticeDeleted}, nil
	}

	now := r.clock.Now()
	for _, n := range notices {
		if now.Sub(n.UpdatedAt) < r.cfg.NoticeTTL {
			logging.Debug("StateRules", "Issue #%d already has a fresh past-due notice (note %d)", issue.IID, n.ID)
			return nil, nil
		}
	}

	if err := r.deleteNotices(ctx, issue.IID, notices); err != nil {
		return nil, err
	}
	if _, err := r.client.CreateNote(ctx, issue.IID, NoticeBody(issue)); err != nil {
		return nil, fmt.Errorf("failed to post past-due notice on issue #%d: %w", issue.IID, err)
	}

	value := NoticeCreated
	if len(notices) > 0 {
		value = NoticeCreatedNew
	}
	return &events.Change{Key: events.KeyPastDueNote, Value: value}, nil
}

func (r *Rules) deleteNotices(ctx context.Context, iid int, notices []tracker.Note) error {
	for _, n := range notices {
		if err := r.client.DeleteNote(ctx, iid, n.ID); err != nil {
			return fmt.Errorf("failed to delete past-due notice %d on issue #%d: %w", n.ID, iid, err)
		}
	}
	return nil
}
