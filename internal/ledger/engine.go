package ledger

import (
	"context"
	"fmt"
	"slices"

	"github.com/giantswarm/housekeep/internal/tracker"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// Scan is the result of reading all notes of an issue.
type Scan struct {
	// SummaryNote and StateNote are the engine-owned notes, nil when absent.
	SummaryNote *tracker.Note
	StateNote   *tracker.Note
	// Previous is the persisted snapshot, nil when no parseable state exists.
	Previous *Snapshot
	// Next is the snapshot rebuilt from the directives.
	Next Snapshot
	// Sources counts the notes that contributed at least one directive.
	Sources int
}

// ScanNotes rebuilds the ledger from notes. Unit and goal directives are
// applied in note creation order, so the latest one wins regardless of the
// order in which notes are passed.
func ScanNotes(iid int, notes []tracker.Note) Scan {
	var scan Scan

	ordered := slices.Clone(notes)
	slices.SortStableFunc(ordered, func(a, b tracker.Note) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.ID - b.ID
	})

	for i := range ordered {
		note := ordered[i]

		if IsSummaryNote(note.Body) {
			if scan.SummaryNote == nil {
				scan.SummaryNote = &note
			}
			continue
		}

		if HasStateBlock(note.Body) {
			if scan.StateNote == nil {
				snap, _, err := ParseState(note.Body)
				if err != nil {
					logging.Warn("Ledger", "Issue #%d: ignoring malformed ledger state in note %d: %v", iid, note.ID, err)
				} else {
					scan.StateNote = &note
					scan.Previous = &snap
				}
			}
			continue
		}
		if IsStateNote(note.Body) || note.System {
			continue
		}

		d := ParseDirectives(note.Body, note.ID, note.CreatedAt)
		for _, line := range d.Invalid {
			logging.Warn("Ledger", "Issue #%d: ignoring invalid directive %q in note %d", iid, line, note.ID)
		}
		if d.IsEmpty() {
			continue
		}

		scan.Sources++
		scan.Next.Items = append(scan.Next.Items, d.Items...)
		if d.Unit != "" {
			scan.Next.Unit = d.Unit
		}
		if d.Goal != nil {
			scan.Next.Goal = d.Goal
		}
		updated := note.UpdatedAt.UTC()
		if scan.Next.LastUpdated == nil || updated.After(*scan.Next.LastUpdated) {
			scan.Next.LastUpdated = &updated
		}
	}

	scan.Next.SortItems()
	return scan
}

// Outcome reports what Process did.
type Outcome struct {
	// Changed is true when the ledger state note was created or updated.
	Changed       bool     `json:"changed"`
	Action        Action   `json:"action"`
	SummaryAction Action   `json:"summaryAction"`
	Snapshot      Snapshot `json:"snapshot"`
}

// Engine publishes ledger state and summary notes through the tracker.
type Engine struct {
	client   tracker.Client
	renderer *Renderer
}

// NewEngine creates an engine writing through client.
func NewEngine(client tracker.Client, renderer *Renderer) *Engine {
	return &Engine{client: client, renderer: renderer}
}

// Renderer returns the summary renderer used by the engine.
func (e *Engine) Renderer() *Renderer {
	return e.renderer
}

// Process rebuilds the ledger of issue from notes and publishes the state
// and summary notes when they are out of date.
func (e *Engine) Process(ctx context.Context, issue tracker.Issue, notes []tracker.Note) (Outcome, error) {
	scan := ScanNotes(issue.IID, notes)
	out := Outcome{Action: ActionNone, SummaryAction: ActionNone, Snapshot: scan.Next}
	hasItems := !scan.Next.IsEmpty()
	// Both notes follow the persisted snapshot. Removing a directive note
	// changes the items without moving lastUpdated.
	stale := scan.Previous == nil || !scan.Previous.Equal(scan.Next)

	// Summary note
	switch {
	case hasItems && (scan.SummaryNote == nil || stale):
		body, err := e.renderer.Render(scan.Next)
		if err != nil {
			return out, err
		}
		if scan.SummaryNote == nil {
			if _, err := e.client.CreateNote(ctx, issue.IID, body); err != nil {
				return out, fmt.Errorf("failed to create ledger summary: %w", err)
			}
			out.SummaryAction = ActionCreated
		} else if scan.SummaryNote.Body != body {
			logging.Debug("Ledger", "Issue #%d summary changes:\n%s", issue.IID, DiffSummary(scan.SummaryNote.Body, body))
			if _, err := e.client.UpdateNote(ctx, issue.IID, scan.SummaryNote.ID, body); err != nil {
				return out, fmt.Errorf("failed to update ledger summary: %w", err)
			}
			out.SummaryAction = ActionUpdated
		}
	case !hasItems && scan.SummaryNote != nil:
		if err := e.client.DeleteNote(ctx, issue.IID, scan.SummaryNote.ID); err != nil {
			return out, fmt.Errorf("failed to delete ledger summary: %w", err)
		}
		out.SummaryAction = ActionDeleted
	}

	// State note
	switch {
	case hasItems && scan.StateNote == nil:
		body, err := RenderState(scan.Next)
		if err != nil {
			return out, err
		}
		if _, err := e.client.CreateNote(ctx, issue.IID, body); err != nil {
			return out, fmt.Errorf("failed to create ledger state: %w", err)
		}
		out.Action, out.Changed = ActionCreated, true
	case hasItems && stale:
		body, err := RenderState(scan.Next)
		if err != nil {
			return out, err
		}
		if _, err := e.client.UpdateNote(ctx, issue.IID, scan.StateNote.ID, body); err != nil {
			return out, fmt.Errorf("failed to update ledger state: %w", err)
		}
		out.Action, out.Changed = ActionUpdated, true
	case !hasItems && scan.StateNote != nil:
		if err := e.client.DeleteNote(ctx, issue.IID, scan.StateNote.ID); err != nil {
			return out, fmt.Errorf("failed to delete ledger state: %w", err)
		}
		// Removing an empty ledger is cleanup, not a content change.
		out.Action = ActionDeleted
	}

	if out.Action != ActionNone || out.SummaryAction != ActionNone {
		logging.Info("Ledger", "Issue #%d: state %s, summary %s (%d items, total %s)",
			issue.IID, out.Action, out.SummaryAction, len(scan.Next.Items), scan.Next.Total())
	}
	return out, nil
}

// Preview renders the summary the engine would publish, without writing.
// summary is empty when the ledger has no items.
func (e *Engine) Preview(iid int, notes []tracker.Note) (summary string, scan Scan, err error) {
	scan = ScanNotes(iid, notes)
	if scan.Next.IsEmpty() {
		return "", scan, nil
	}
	summary, err = e.renderer.Render(scan.Next)
	return summary, scan, err
}
