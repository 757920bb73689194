package ledger

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

const progressCells = 10

const summaryTemplate = `{{ .Marker }} :bar_chart: **Ledger summary**

- **Entries:** {{ .Count }}
- **Period:** {{ dateInZone "2006-01-02" .First "UTC" }} to {{ dateInZone "2006-01-02" .Last "UTC" }}
- **Smallest entry:** {{ .Min }}{{ .UnitSuffix }}
- **Largest entry:** {{ .Max }}{{ .UnitSuffix }}
{{- if .HasGoal }}
- **Goal:** {{ .Total }} of {{ .Goal }}{{ .UnitSuffix }} ({{ .Percent }}%) ` + "`" + `{{ repeat .Filled "#" }}{{ repeat .Empty "-" }}` + "`" + `
{{- end }}

{{ .MonthTable }}

**Latest entry:** {{ .Latest.Amount }}{{ .UnitSuffix }} on {{ dateInZone "2006-01-02" .Latest.Date "UTC" }}
`

// MonthRow is the aggregate of one calendar month.
type MonthRow struct {
	Month  string
	Count  int
	Amount decimal.Decimal
}

type summaryData struct {
	Marker     string
	Count      int
	First      time.Time
	Last       time.Time
	Min        decimal.Decimal
	Max        decimal.Decimal
	Total      decimal.Decimal
	UnitSuffix string
	HasGoal    bool
	Goal       decimal.Decimal
	Percent    int64
	Filled     int
	Empty      int
	MonthTable string
	Latest     Item
}

// Renderer turns a snapshot into the body of the summary note.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the summary template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("summary").Funcs(sprig.TxtFuncMap()).Parse(summaryTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Months groups items by year-month in chronological order.
func Months(items []Item) []MonthRow {
	var rows []MonthRow
	for _, it := range items {
		key := it.Date.Format(dateLayout)[:7]
		if n := len(rows); n > 0 && rows[n-1].Month == key {
			rows[n-1].Count++
			rows[n-1].Amount = rows[n-1].Amount.Add(it.Amount)
			continue
		}
		rows = append(rows, MonthRow{Month: key, Count: 1, Amount: it.Amount})
	}
	return rows
}

// Percent returns round(100 * total / goal). goal must be positive.
func Percent(total, goal decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Div(goal).Round(0).IntPart()
}

// Render renders the summary of a snapshot with at least one item. Items
// must be sorted.
func (r *Renderer) Render(snap Snapshot) (string, error) {
	if snap.IsEmpty() {
		return "", fmt.Errorf("cannot render summary of an empty ledger")
	}

	data := summaryData{
		Marker: SummaryMarker,
		Count:  len(snap.Items),
		First:  snap.Items[0].Date,
		Last:   snap.Items[len(snap.Items)-1].Date,
		Min:    snap.Items[0].Amount,
		Max:    snap.Items[0].Amount,
		Total:  snap.Total(),
		Latest: snap.Items[len(snap.Items)-1],
	}
	for _, it := range snap.Items {
		if it.Amount.LessThan(data.Min) {
			data.Min = it.Amount
		}
		if it.Amount.GreaterThan(data.Max) {
			data.Max = it.Amount
		}
	}
	if snap.Unit != "" {
		data.UnitSuffix = " " + snap.Unit
	}
	if snap.Goal != nil && snap.Goal.IsPositive() {
		data.HasGoal = true
		data.Goal = *snap.Goal
		data.Percent = Percent(data.Total, data.Goal)
		data.Filled = int(min(max(data.Percent, 0), 100) / 10)
		data.Empty = progressCells - data.Filled
	}
	data.MonthTable = renderMonthTable(Months(snap.Items), data.Total, len(snap.Items))

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	return buf.String(), nil
}

func renderMonthTable(rows []MonthRow, total decimal.Decimal, count int) string {
	topAmount, topCount := 0, 0
	for i, row := range rows {
		if row.Amount.GreaterThan(rows[topAmount].Amount) {
			topAmount = i
		}
		if row.Count > rows[topCount].Count {
			topCount = i
		}
	}

	tw := table.NewWriter()
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"Month", "Entries", "Amount", ""})
	for i, row := range rows {
		var flags []string
		if i == topAmount {
			flags = append(flags, ":trophy:")
		}
		if i == topCount {
			flags = append(flags, ":star:")
		}
		tw.AppendRow(table.Row{row.Month, row.Count, row.Amount.String(), strings.Join(flags, " ")})
	}
	tw.AppendFooter(table.Row{"Total", count, total.String(), ""})
	return tw.RenderMarkdown()
}
