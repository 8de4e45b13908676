package visits_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

func TestState(t *testing.T) {
	tests := []struct {
		state    visits.State
		name     string
		receives bool
		terminal bool
	}{
		{visits.StateIdle, "idle", false, false},
		{visits.StateRunning, "running", true, false},
		{visits.StatePaused, "paused", false, false},
		{visits.StateFinished, "finished", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.state.String())
			assert.Equal(t, tt.receives, tt.state.CanReceiveEvents())
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())

			parsed, err := visits.ParseState(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.state, parsed)
		})
	}
}

func TestState_Unknown(t *testing.T) {
	assert.Equal(t, "State(9)", visits.State(9).String())

	_, err := visits.ParseState("sleeping")
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestState_Text(t *testing.T) {
	data, err := json.Marshal(map[string]visits.State{"state": visits.StatePaused})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"paused"}`, string(data))

	var decoded struct {
		State visits.State `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"state":"RUNNING"}`), &decoded))
	assert.Equal(t, visits.StateRunning, decoded.State)

	assert.Error(t, json.Unmarshal([]byte(`{"state":"bogus"}`), &decoded))
}
