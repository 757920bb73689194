package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderState_RoundTrip(t *testing.T) {
	body, err := RenderState(State{Key: "backup", BotCounter: 3, PingNote: 88})
	require.NoError(t, err)
	assert.Contains(t, body, "```yaml\n# housekeep task\nkey: backup\nbotcounter: 3\nping_note: 88\n```\n")

	state, found, err := ParseState(body)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, State{Key: "backup", BotCounter: 3, PingNote: 88}, state)
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected State
		found    bool
		err      string
	}{
		{
			name:  "plain comment",
			body:  "Looks good to me",
			found: false,
		},
		{
			name:     "hand-written block without ping",
			body:     "Config:\r\n\r\n```yml\r\n# Housekeep Task\r\nkey: weekly\r\nbotcounter: 2\r\n```\r\n",
			expected: State{Key: "weekly", BotCounter: 2},
			found:    true,
		},
		{
			name:  "block without key",
			body:  "```yaml\n# housekeep task\nbotcounter: 2\n```\n",
			found: true,
			err:   "without key",
		},
		{
			name:  "block that does not decode",
			body:  "```yaml\n# housekeep task\nkey: [\n```\n",
			found: true,
			err:   "failed to decode task state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, found, err := ParseState(tt.body)
			assert.Equal(t, tt.found, found)
			if tt.err != "" {
				assert.ErrorContains(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, state)
		})
	}
}
