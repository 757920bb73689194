package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseDirectives(t *testing.T) {
	created := time.Date(2024, 3, 5, 17, 45, 0, 0, time.UTC)

	tests := []struct {
		name          string
		body          string
		expectedItems []Item
		expectedUnit  string
		expectedGoal  string
		invalid       int
	}{
		{
			name:          "count with explicit date",
			body:          "!count 5 2024-01-01",
			expectedItems: []Item{{Date: day("2024-01-01"), Amount: dec("5"), NoteID: 7}},
		},
		{
			name:          "count defaults to creation day",
			body:          "went running\n!count 2.5\n",
			expectedItems: []Item{{Date: day("2024-03-05"), Amount: dec("2.5"), NoteID: 7}},
		},
		{
			name:         "unit and goal, last wins",
			body:         "!countunit km\r\n!countgoal 10\n!countgoal 12.5",
			expectedUnit: "km",
			expectedGoal: "12.5",
		},
		{
			name: "directives must start the line",
			body: "see !count 5\n  !count 3\n`!count 4`",
		},
		{
			name: "negative amounts are not directives",
			body: "!count -3",
		},
		{
			name:    "impossible date is reported",
			body:    "!count 1 2024-13-40",
			invalid: 1,
		},
		{
			name:         "countunit is not a count",
			body:         "!countunit 5",
			expectedUnit: "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDirectives(tt.body, 7, created)
			assert.Equal(t, len(tt.expectedItems), len(d.Items))
			for i := range tt.expectedItems {
				assert.True(t, tt.expectedItems[i].Date.Equal(d.Items[i].Date))
				assert.True(t, tt.expectedItems[i].Amount.Equal(d.Items[i].Amount))
				assert.Equal(t, tt.expectedItems[i].NoteID, d.Items[i].NoteID)
			}
			assert.Equal(t, tt.expectedUnit, d.Unit)
			if tt.expectedGoal == "" {
				assert.Nil(t, d.Goal)
			} else {
				require.NotNil(t, d.Goal)
				assert.True(t, dec(tt.expectedGoal).Equal(*d.Goal))
			}
			assert.Len(t, d.Invalid, tt.invalid)
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	updated := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)
	goal := dec("10")
	snap := Snapshot{
		LastUpdated: &updated,
		Unit:        "km",
		Goal:        &goal,
		Items: []Item{
			{Date: day("2024-01-01"), Amount: dec("5"), NoteID: 1},
			{Date: day("2024-02-01"), Amount: dec("3.25"), NoteID: 2},
		},
	}

	body, err := RenderState(snap)
	require.NoError(t, err)
	assert.True(t, IsStateNote(body))
	assert.Contains(t, body, "# housekeep ledger state")

	parsed, found, err := ParseState(body)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, snap.Equal(parsed), "parsed snapshot should equal rendered one:\n%s", body)
}

func TestParseState_EmptyLedger(t *testing.T) {
	body, err := RenderState(Snapshot{})
	require.NoError(t, err)

	parsed, found, err := ParseState(body)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, parsed.LastUpdated)
	assert.Empty(t, parsed.Items)
}

func TestParseState_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"broken yaml", "```yaml\n# housekeep ledger state\nitems: [\n```\n"},
		{"bad timestamp", "```yaml\n# housekeep ledger state\nlastUpdated: yesterday\nitems: []\n```\n"},
		{"bad amount", "```yml\n# housekeep ledger state\nitems:\n  - date: \"2024-01-01\"\n    amount: lots\n    note: 1\n```\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, HasStateBlock(tt.body))
			_, found, err := ParseState(tt.body)
			assert.True(t, found)
			assert.Error(t, err)
		})
	}

	_, found, err := ParseState("just a comment\n```yaml\nfoo: bar\n```")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMarkers(t *testing.T) {
	assert.True(t, IsSummaryNote("`housekeep:ledgersummary` :bar_chart:"))
	assert.False(t, IsSummaryNote("`housekeep:ledger` state"))
	assert.True(t, IsStateNote("  `housekeep:ledger` state"))
	assert.False(t, IsStateNote("`housekeep:ledgersummary`"))
}
