package replay

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/waypoint/internal/cmd/application"
)

const commute = "../../../../internal/scenario/testdata/commute.yaml"

func execute(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	app := &application.Mock{
		OutputFormatFunc: func() string { return format },
	}

	root := &cobra.Command{Use: "waypoint"}
	root.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	root.AddCommand(NewCommand(app))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"replay"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestReplay_Table(t *testing.T) {
	out, err := execute(t, "table", commute, "--dispatches")
	require.NoError(t, err)

	assert.Contains(t, out, `Scenario "commute": 8 steps, 5 visits and 3 failures`)
	assert.Contains(t, out, "phone")
	assert.Contains(t, out, "watch")
	assert.Contains(t, out, "Finished")
	assert.Contains(t, out, "phone#1 (step 3)")
	assert.Contains(t, out, "permission_denied")
}

func TestReplay_JSON(t *testing.T) {
	out, err := execute(t, "json", commute)
	require.NoError(t, err)

	var report struct {
		Scenario      string           `json:"scenario"`
		Dispatches    []map[string]any `json:"dispatches"`
		Subscriptions []map[string]any `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "commute", report.Scenario)
	assert.Len(t, report.Dispatches, 8)
	require.Len(t, report.Subscriptions, 2)
	assert.Equal(t, "phone", report.Subscriptions[0]["name"])
	assert.Equal(t, true, report.Subscriptions[0]["removed"])
}

func TestReplay_Errors(t *testing.T) {
	_, err := execute(t, "table", "missing.yaml")
	assert.Error(t, err)

	_, err = execute(t, "table")
	assert.Error(t, err, "scenario argument is required")
}
