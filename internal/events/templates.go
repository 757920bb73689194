package events

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

var defaultTemplates = map[Key]string{
	// Issue fields
	KeyState:            `{{if .DryRun}}Would mark{{else}}Marked{{end}} issue #{{.IID}} ({{.Title | trunc 60}}) as {{.Value}}`,
	KeyDiscussionLocked: `{{if .DryRun}}Would lock{{else}}Locked{{end}} discussion of issue #{{.IID}}`,
	KeyConfidential:     `{{if .DryRun}}Would set{{else}}Set{{end}} confidential={{.Value}} on issue #{{.IID}}`,
	KeyAssignee:         `{{if .DryRun}}Would assign{{else}}Assigned{{end}} {{.Value}} to issue #{{.IID}}`,
	KeyMilestone:        `{{if .DryRun}}Would attach{{else}}Attached{{end}} milestone {{.Value}} to issue #{{.IID}}`,

	// Labels
	KeyLabelAdd:    `{{if .DryRun}}Would add{{else}}Added{{end}} label {{.Value}} to issue #{{.IID}}`,
	KeyLabelRemove: `{{if .DryRun}}Would remove{{else}}Removed{{end}} label {{.Value}} from issue #{{.IID}}`,

	// Notes
	KeyCounter:        `Ledger state of issue #{{.IID}} {{.Value}}`,
	KeyCounterSummary: `Ledger summary of issue #{{.IID}} {{.Value}}`,
	KeyPastDueNote:    `Past-due notice on issue #{{.IID}} {{.Value | replace "_" " "}}`,
}

// MessageTemplateEngine renders the log message of a change.
type MessageTemplateEngine struct {
	templates *template.Template
}

// NewMessageTemplateEngine parses the built-in message templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	root := template.New("events").Funcs(sprig.TxtFuncMap()).Option("missingkey=zero")
	for key, text := range defaultTemplates {
		template.Must(root.New(string(key)).Parse(text))
	}
	return &MessageTemplateEngine{templates: root}
}

// Render generates a message for the given key and data.
func (e *MessageTemplateEngine) Render(key Key, data EventData) string {
	fallback := fmt.Sprintf("Change %s=%s on issue #%d", key, data.Value, data.IID)

	tmpl := e.templates.Lookup(string(key))
	if tmpl == nil {
		return fallback
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fallback
	}
	return b.String()
}
