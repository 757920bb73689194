package tasks

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// StateMarker starts the body of a task state note.
	StateMarker = "`housekeep:task`"

	stateBlockHeader = "# housekeep task"
)

var stateBlockPattern = regexp.MustCompile("(?msi)^```ya?ml[ \\t]*\\r?\\n" +
	regexp.QuoteMeta(stateBlockHeader) + "[ \\t]*\\r?\\n(.*?)^```[ \\t]*\\r?$")

// State is what a task issue remembers between runs.
type State struct {
	Key string `yaml:"key" json:"key"`

	// BotCounter counts how often the task was raised, creation included.
	BotCounter int `yaml:"botcounter" json:"botcounter"`

	// PingNote is the ID of the latest ping, zero when none was posted.
	PingNote int `yaml:"ping_note,omitempty" json:"pingNote,omitempty"`
}

// ParseState extracts the task state from a note body. found is false when
// the body holds no state block.
func ParseState(body string) (state State, found bool, err error) {
	m := stateBlockPattern.FindStringSubmatch(body)
	if m == nil {
		return State{}, false, nil
	}
	if err := yaml.Unmarshal([]byte(m[1]), &state); err != nil {
		return State{}, true, fmt.Errorf("failed to decode task state: %w", err)
	}
	if state.Key == "" {
		return State{}, true, fmt.Errorf("task state without key")
	}
	return state, true, nil
}

// RenderState renders the full body of a task state note.
func RenderState(state State) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(state); err != nil {
		return "", fmt.Errorf("failed to encode task state: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode task state: %w", err)
	}

	var b strings.Builder
	b.WriteString(StateMarker)
	b.WriteString(" :tea: Recurring task state, maintained by housekeep. Do not edit.\n\n")
	b.WriteString("```yaml\n")
	b.WriteString(stateBlockHeader)
	b.WriteString("\n")
	b.WriteString(buf.String())
	b.WriteString("```\n")
	return b.String(), nil
}
