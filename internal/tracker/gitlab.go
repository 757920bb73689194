package tracker

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/giantswarm/housekeep/pkg/logging"
)

const pageSize = 100

// GitLabClient implements Client on top of the GitLab REST API for a single
// project. All SDK calls live in this file.
type GitLabClient struct {
	api     *gitlab.Client
	project string
}

// NewGitLabClient creates a client for the project identified by its numeric
// ID or full path ("group/project").
func NewGitLabClient(baseURL, token, project string, options ...gitlab.ClientOptionFunc) (*GitLabClient, error) {
	opts := []gitlab.ClientOptionFunc{}
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	api, err := gitlab.NewClient(token, append(opts, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return &GitLabClient{api: api, project: project}, nil
}

// paginate walks every page produced by fetch. fetch receives the page to
// request and returns the items plus the next page number (0 when done).
func paginate[T any](fetch func(page int) ([]T, int, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		page := 1
		for page != 0 {
			items, next, err := fetch(page)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			page = next
		}
	}
}

func nextPage(resp *gitlab.Response) int {
	if resp == nil {
		return 0
	}
	return toInt(resp.NextPage)
}

func isNotFound(resp *gitlab.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

func (c *GitLabClient) ListIssues(ctx context.Context, filter IssueFilter) iter.Seq2[Issue, error] {
	opts := &gitlab.ListProjectIssuesOptions{
		ListOptions: gitlab.ListOptions{PerPage: pageSize},
	}
	if filter.State != "" && filter.State != "all" {
		opts.State = gitlab.Ptr(filter.State)
	}
	if len(filter.Labels) > 0 {
		labels := gitlab.LabelOptions(filter.Labels)
		opts.Labels = &labels
	}
	if len(filter.IIDs) > 0 {
		opts.IIDs = gitlab.Ptr(toInt64s(filter.IIDs))
	}
	opts.UpdatedAfter = filter.UpdatedAfter
	opts.UpdatedBefore = filter.UpdatedBefore

	return paginate(func(page int) ([]Issue, int, error) {
		opts.Page = int64(page)
		logging.Debug("Tracker", "Listing issues of %s (page %d)", c.project, page)
		raw, resp, err := c.api.Issues.ListProjectIssues(c.project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list issues: %w", err)
		}
		issues := make([]Issue, 0, len(raw))
		for _, gi := range raw {
			issues = append(issues, convertIssue(gi))
		}
		return issues, nextPage(resp), nil
	})
}

func (c *GitLabClient) GetIssue(ctx context.Context, iid int) (Issue, bool, error) {
	gi, resp, err := c.api.Issues.GetIssue(c.project, int64(iid), gitlab.WithContext(ctx))
	if err != nil {
		if isNotFound(resp) {
			return Issue{}, false, nil
		}
		return Issue{}, false, fmt.Errorf("failed to get issue #%d: %w", iid, err)
	}
	return convertIssue(gi), true, nil
}

func (c *GitLabClient) CreateIssue(ctx context.Context, issue NewIssue) (Issue, error) {
	opts := &gitlab.CreateIssueOptions{Title: gitlab.Ptr(issue.Title)}
	if issue.Description != "" {
		opts.Description = gitlab.Ptr(issue.Description)
	}
	if len(issue.Labels) > 0 {
		labels := gitlab.LabelOptions(issue.Labels)
		opts.Labels = &labels
	}
	if len(issue.AssigneeIDs) > 0 {
		opts.AssigneeIDs = gitlab.Ptr(toInt64s(issue.AssigneeIDs))
	}
	if issue.DueDate != nil {
		d := gitlab.ISOTime(*issue.DueDate)
		opts.DueDate = &d
	}
	gi, _, err := c.api.Issues.CreateIssue(c.project, opts, gitlab.WithContext(ctx))
	if err != nil {
		return Issue{}, fmt.Errorf("failed to create issue %q: %w", issue.Title, err)
	}
	return convertIssue(gi), nil
}

func (c *GitLabClient) UpdateIssue(ctx context.Context, iid int, patch IssuePatch) (Issue, error) {
	opts := &gitlab.UpdateIssueOptions{
		StateEvent:       patch.StateEvent,
		DiscussionLocked: patch.DiscussionLocked,
		Confidential:     patch.Confidential,
	}
	if patch.AssigneeIDs != nil {
		opts.AssigneeIDs = gitlab.Ptr(toInt64s(*patch.AssigneeIDs))
	}
	if patch.MilestoneID != nil {
		if *patch.MilestoneID == 0 {
			opts.ResetMilestoneID = true
		} else {
			opts.MilestoneID = gitlab.Ptr(int64(*patch.MilestoneID))
		}
	}
	if len(patch.AddLabels) > 0 {
		add := gitlab.LabelOptions(patch.AddLabels)
		opts.AddLabels = &add
	}
	if len(patch.RemoveLabels) > 0 {
		remove := gitlab.LabelOptions(patch.RemoveLabels)
		opts.RemoveLabels = &remove
	}
	gi, _, err := c.api.Issues.UpdateIssue(c.project, int64(iid), opts, gitlab.WithContext(ctx))
	if err != nil {
		return Issue{}, fmt.Errorf("failed to update issue #%d: %w", iid, err)
	}
	return convertIssue(gi), nil
}

func (c *GitLabClient) ListNotes(ctx context.Context, iid int) iter.Seq2[Note, error] {
	opts := &gitlab.ListIssueNotesOptions{
		ListOptions: gitlab.ListOptions{PerPage: pageSize},
	}
	return paginate(func(page int) ([]Note, int, error) {
		opts.Page = int64(page)
		raw, resp, err := c.api.Notes.ListIssueNotes(c.project, int64(iid), opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list notes of issue #%d: %w", iid, err)
		}
		notes := make([]Note, 0, len(raw))
		for _, n := range raw {
			notes = append(notes, convertNote(n))
		}
		return notes, nextPage(resp), nil
	})
}

func (c *GitLabClient) CreateNote(ctx context.Context, iid int, body string) (Note, error) {
	n, _, err := c.api.Notes.CreateIssueNote(c.project, int64(iid), &gitlab.CreateIssueNoteOptions{
		Body: gitlab.Ptr(body),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return Note{}, fmt.Errorf("failed to create note on issue #%d: %w", iid, err)
	}
	return convertNote(n), nil
}

func (c *GitLabClient) UpdateNote(ctx context.Context, iid int, noteID int, body string) (Note, error) {
	n, _, err := c.api.Notes.UpdateIssueNote(c.project, int64(iid), int64(noteID), &gitlab.UpdateIssueNoteOptions{
		Body: gitlab.Ptr(body),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return Note{}, fmt.Errorf("failed to update note %d on issue #%d: %w", noteID, iid, err)
	}
	return convertNote(n), nil
}

func (c *GitLabClient) DeleteNote(ctx context.Context, iid int, noteID int) error {
	if _, err := c.api.Notes.DeleteIssueNote(c.project, int64(iid), int64(noteID), gitlab.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete note %d on issue #%d: %w", noteID, iid, err)
	}
	return nil
}

func (c *GitLabClient) ListLabelEvents(ctx context.Context, iid int) iter.Seq2[LabelEvent, error] {
	opts := &gitlab.ListLabelEventsOptions{
		ListOptions: gitlab.ListOptions{PerPage: pageSize},
	}
	return paginate(func(page int) ([]LabelEvent, int, error) {
		opts.Page = int64(page)
		raw, resp, err := c.api.ResourceLabelEvents.ListIssueLabelEvents(c.project, int64(iid), opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list label events of issue #%d: %w", iid, err)
		}
		events := make([]LabelEvent, 0, len(raw))
		for _, e := range raw {
			events = append(events, LabelEvent{
				Label:     e.Label.Name,
				Action:    LabelAction(e.Action),
				CreatedAt: derefTime(e.CreatedAt),
			})
		}
		return events, nextPage(resp), nil
	})
}

func (c *GitLabClient) ListMilestones(ctx context.Context, filter MilestoneFilter) iter.Seq2[Milestone, error] {
	opts := &gitlab.ListMilestonesOptions{
		ListOptions: gitlab.ListOptions{PerPage: pageSize},
	}
	if filter.State != "" {
		opts.State = gitlab.Ptr(filter.State)
	}
	if filter.Title != "" {
		opts.Title = gitlab.Ptr(filter.Title)
	}
	return paginate(func(page int) ([]Milestone, int, error) {
		opts.Page = int64(page)
		raw, resp, err := c.api.Milestones.ListMilestones(c.project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list milestones: %w", err)
		}
		milestones := make([]Milestone, 0, len(raw))
		for _, m := range raw {
			milestones = append(milestones, convertMilestone(m))
		}
		return milestones, nextPage(resp), nil
	})
}

func (c *GitLabClient) CreateMilestone(ctx context.Context, title string, dueDate *time.Time) (Milestone, error) {
	opts := &gitlab.CreateMilestoneOptions{Title: gitlab.Ptr(title)}
	if dueDate != nil {
		d := gitlab.ISOTime(*dueDate)
		opts.DueDate = &d
	}
	m, _, err := c.api.Milestones.CreateMilestone(c.project, opts, gitlab.WithContext(ctx))
	if err != nil {
		return Milestone{}, fmt.Errorf("failed to create milestone %q: %w", title, err)
	}
	return convertMilestone(m), nil
}

// toInt narrows SDK identifiers and page numbers to the domain's int.
func toInt(v int64) int {
	return int(v)
}

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func isoDate(t *gitlab.ISOTime) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Time(*t).UTC()
	return &d
}

func convertIssue(gi *gitlab.Issue) Issue {
	issue := Issue{
		IID:              toInt(gi.IID),
		Title:            gi.Title,
		WebURL:           gi.WebURL,
		State:            IssueState(gi.State),
		Labels:           append([]string(nil), gi.Labels...),
		Confidential:     gi.Confidential,
		DiscussionLocked: gi.DiscussionLocked,
		DueDate:          isoDate(gi.DueDate),
		UpdatedAt:        derefTime(gi.UpdatedAt),
	}
	for _, a := range gi.Assignees {
		if a == nil {
			continue
		}
		issue.Assignees = append(issue.Assignees, User{ID: toInt(a.ID), Username: a.Username})
	}
	if gi.Milestone != nil {
		issue.Milestone = &MilestoneRef{ID: toInt(gi.Milestone.ID), Title: gi.Milestone.Title}
	}
	if gi.ClosedBy != nil {
		issue.ClosedBy = &User{ID: toInt(gi.ClosedBy.ID), Username: gi.ClosedBy.Username}
	}
	return issue
}

func convertNote(n *gitlab.Note) Note {
	return Note{
		ID:        toInt(n.ID),
		Body:      n.Body,
		System:    n.System,
		CreatedAt: derefTime(n.CreatedAt),
		UpdatedAt: derefTime(n.UpdatedAt),
	}
}

func convertMilestone(m *gitlab.Milestone) Milestone {
	return Milestone{
		ID:      toInt(m.ID),
		IID:     toInt(m.IID),
		Title:   m.Title,
		State:   m.State,
		DueDate: isoDate(m.DueDate),
	}
}
