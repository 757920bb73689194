package ledger

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// StateMarker starts the body of the ledger state note.
	StateMarker = "`housekeep:ledger`"
	// SummaryMarker starts the body of the ledger summary note.
	SummaryMarker = "`housekeep:ledgersummary`"

	stateBlockHeader = "# housekeep ledger state"
	dateLayout       = "2006-01-02"
)

var (
	stateBlockPattern = regexp.MustCompile("(?ms)^```ya?ml[ \\t]*\\r?\\n" +
		regexp.QuoteMeta(stateBlockHeader) + "[ \\t]*\\r?\\n(.*?)^```[ \\t]*\\r?$")

	countPattern = regexp.MustCompile(`(?m)^!count[ \t]+([0-9]+(?:\.[0-9]+)?)(?:[ \t]+([0-9]{4}-[0-9]{2}-[0-9]{2}))?[ \t]*\r?$`)
	unitPattern  = regexp.MustCompile(`(?m)^!countunit[ \t]+(\S+)[ \t]*\r?$`)
	goalPattern  = regexp.MustCompile(`(?m)^!countgoal[ \t]+([0-9]+(?:\.[0-9]+)?)[ \t]*\r?$`)
)

type stateDoc struct {
	LastUpdated *string   `yaml:"lastUpdated"`
	Unit        string    `yaml:"unit,omitempty"`
	Goal        string    `yaml:"goal,omitempty"`
	Items       []itemDoc `yaml:"items"`
}

type itemDoc struct {
	Date   string `yaml:"date"`
	Amount string `yaml:"amount"`
	Note   int    `yaml:"note"`
}

// IsStateNote reports whether body belongs to the engine's state note.
func IsStateNote(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), StateMarker)
}

// IsSummaryNote reports whether body belongs to the engine's summary note.
func IsSummaryNote(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), SummaryMarker)
}

// HasStateBlock reports whether body contains a ledger state block, parseable or not.
func HasStateBlock(body string) bool {
	return stateBlockPattern.MatchString(body)
}

// ParseState extracts the snapshot from a note body. found is false when the
// body holds no state block; a block that does not decode is an error.
func ParseState(body string) (snap Snapshot, found bool, err error) {
	m := stateBlockPattern.FindStringSubmatch(body)
	if m == nil {
		return Snapshot{}, false, nil
	}

	var doc stateDoc
	if err := yaml.Unmarshal([]byte(m[1]), &doc); err != nil {
		return Snapshot{}, true, fmt.Errorf("failed to decode ledger state: %w", err)
	}

	if doc.LastUpdated != nil && *doc.LastUpdated != "" {
		t, err := time.Parse(time.RFC3339Nano, *doc.LastUpdated)
		if err != nil {
			return Snapshot{}, true, fmt.Errorf("invalid lastUpdated %q: %w", *doc.LastUpdated, err)
		}
		t = t.UTC()
		snap.LastUpdated = &t
	}
	snap.Unit = doc.Unit
	if doc.Goal != "" {
		g, err := decimal.NewFromString(doc.Goal)
		if err != nil {
			return Snapshot{}, true, fmt.Errorf("invalid goal %q: %w", doc.Goal, err)
		}
		snap.Goal = &g
	}
	for _, it := range doc.Items {
		date, err := time.Parse(dateLayout, it.Date)
		if err != nil {
			return Snapshot{}, true, fmt.Errorf("invalid item date %q: %w", it.Date, err)
		}
		amount, err := decimal.NewFromString(it.Amount)
		if err != nil {
			return Snapshot{}, true, fmt.Errorf("invalid item amount %q: %w", it.Amount, err)
		}
		if amount.IsNegative() {
			return Snapshot{}, true, fmt.Errorf("negative item amount %q", it.Amount)
		}
		snap.Items = append(snap.Items, Item{Date: date, Amount: amount, NoteID: it.Note})
	}
	snap.SortItems()
	return snap, true, nil
}

// RenderState renders the full body of the state note.
func RenderState(snap Snapshot) (string, error) {
	doc := stateDoc{Unit: snap.Unit, Items: []itemDoc{}}
	if snap.LastUpdated != nil {
		s := snap.LastUpdated.UTC().Format(time.RFC3339Nano)
		doc.LastUpdated = &s
	}
	if snap.Goal != nil {
		doc.Goal = snap.Goal.String()
	}
	for _, it := range snap.Items {
		doc.Items = append(doc.Items, itemDoc{
			Date:   it.Date.Format(dateLayout),
			Amount: it.Amount.String(),
			Note:   it.NoteID,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode ledger state: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode ledger state: %w", err)
	}

	var b strings.Builder
	b.WriteString(StateMarker)
	b.WriteString(" :abacus: Ledger state, maintained by housekeep. Do not edit.\n\n")
	b.WriteString("```yaml\n")
	b.WriteString(stateBlockHeader)
	b.WriteString("\n")
	b.WriteString(buf.String())
	b.WriteString("```\n")
	return b.String(), nil
}

// Directives is what a single note body contributes to the ledger.
type Directives struct {
	Items []Item
	Unit  string
	Goal  *decimal.Decimal
	// Invalid lists directive lines that matched but could not be used.
	Invalid []string
}

// IsEmpty reports whether the body held no usable directive.
func (d Directives) IsEmpty() bool {
	return len(d.Items) == 0 && d.Unit == "" && d.Goal == nil
}

// ParseDirectives extracts count, unit and goal directives from body.
// Counts without an explicit date are booked on the UTC day of createdAt.
// When a body repeats the unit or goal directive, the last one wins.
func ParseDirectives(body string, noteID int, createdAt time.Time) Directives {
	var d Directives

	day := createdAt.UTC().Truncate(24 * time.Hour)
	for _, m := range countPattern.FindAllStringSubmatch(body, -1) {
		amount, err := decimal.NewFromString(m[1])
		if err != nil {
			d.Invalid = append(d.Invalid, strings.TrimSpace(m[0]))
			continue
		}
		date := day
		if m[2] != "" {
			date, err = time.Parse(dateLayout, m[2])
			if err != nil {
				d.Invalid = append(d.Invalid, strings.TrimSpace(m[0]))
				continue
			}
		}
		d.Items = append(d.Items, Item{Date: date, Amount: amount, NoteID: noteID})
	}

	for _, m := range unitPattern.FindAllStringSubmatch(body, -1) {
		d.Unit = m[1]
	}

	for _, m := range goalPattern.FindAllStringSubmatch(body, -1) {
		g, err := decimal.NewFromString(m[1])
		if err != nil {
			d.Invalid = append(d.Invalid, strings.TrimSpace(m[0]))
			continue
		}
		d.Goal = &g
	}
	return d
}
