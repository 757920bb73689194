package ledger

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Item is one ledger entry.
type Item struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	NoteID int             `json:"noteId"`
}

// Snapshot is the complete ledger state of an issue.
type Snapshot struct {
	LastUpdated *time.Time       `json:"lastUpdated"`
	Unit        string           `json:"unit,omitempty"`
	Goal        *decimal.Decimal `json:"goal,omitempty"`
	Items       []Item           `json:"items"`
}

// Total returns the exact sum of all amounts.
func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Amount)
	}
	return total
}

// IsEmpty reports whether the snapshot has no items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// SortItems orders items by (date, note ID).
func (s *Snapshot) SortItems() {
	slices.SortStableFunc(s.Items, func(a, b Item) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.NoteID - b.NoteID
	})
}

// Equal reports whether two snapshots carry the same ledger content.
func (s Snapshot) Equal(o Snapshot) bool {
	if !sameTime(s.LastUpdated, o.LastUpdated) || s.Unit != o.Unit {
		return false
	}
	if (s.Goal == nil) != (o.Goal == nil) || (s.Goal != nil && !s.Goal.Equal(*o.Goal)) {
		return false
	}
	return slices.EqualFunc(s.Items, o.Items, func(a, b Item) bool {
		return a.Date.Equal(b.Date) && a.Amount.Equal(b.Amount) && a.NoteID == b.NoteID
	})
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Action describes what happened to an engine-owned note.
type Action string

const (
	ActionNone    Action = "none"
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)
