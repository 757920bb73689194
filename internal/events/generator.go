package events

import (
	"github.com/giantswarm/housekeep/pkg/logging"
)

// Recorder collects the changes applied to one issue and logs a message for
// each of them.
type Recorder struct {
	iid       int
	title     string
	dryRun    bool
	changes   []Change
	templates *MessageTemplateEngine
}

// NewRecorder creates a recorder for the given issue.
func NewRecorder(iid int, title string) *Recorder {
	return &Recorder{
		iid:       iid,
		title:     title,
		templates: NewMessageTemplateEngine(),
	}
}

// SetDryRun marks recorded changes as simulated in log messages.
func (r *Recorder) SetDryRun(dryRun bool) {
	r.dryRun = dryRun
}

// Record appends a change and logs it.
func (r *Recorder) Record(key Key, value string) {
	c := Change{Key: key, Value: value}
	r.changes = append(r.changes, c)

	message := r.templates.Render(key, EventData{IID: r.iid, Title: r.title, Value: value, DryRun: r.dryRun})
	logging.Info("Orchestrator", "%s", message)
}

// Changes returns the recorded changes in order.
func (r *Recorder) Changes() []Change {
	return append([]Change(nil), r.changes...)
}
