package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/waypoint"
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/logging"
	"github.com/agentstation/waypoint/pkg/visits"
)

func newClient(t *testing.T) waypoint.Client {
	t.Helper()
	client, err := waypoint.New(waypoint.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLoad(t *testing.T) {
	s, err := Load("testdata/commute.yaml")
	require.NoError(t, err)

	assert.Equal(t, "commute", s.Name)
	require.Len(t, s.Steps, 8)
	assert.Equal(t, ActionSubscribe, s.Steps[0].Action)
	require.NotNil(t, s.Steps[3].Visit)
	assert.InDelta(t, 45.4642, s.Steps[3].Visit.Coordinate.Latitude, 1e-9)
	assert.True(t, s.Steps[3].Visit.HasDeparture())
	assert.True(t, s.Steps[6].Keep)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load("testdata/missing.yaml")
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
	})

	t.Run("invalid steps are all reported", func(t *testing.T) {
		_, err := Load("testdata/invalid.json")
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
		assert.Contains(t, err.Error(), "steps[0].subscription")
		assert.Contains(t, err.Error(), "steps[1].action")
		assert.Contains(t, err.Error(), "steps[2].visit")
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "json document",
			doc:  `{"name": "j", "steps": [{"action": "subscribe", "subscription": "a"}]}`,
		},
		{
			name:    "unknown field",
			doc:     "name: x\nsteps:\n  - action: subscribe\n    subscription: a\n    colour: red\n",
			wantErr: true,
		},
		{
			name:    "no steps",
			doc:     "name: empty\n",
			wantErr: true,
		},
		{
			name:    "duplicate subscribe",
			doc:     "steps:\n  - {action: subscribe, subscription: a}\n  - {action: subscribe, subscription: a}\n",
			wantErr: true,
		},
		{
			name:    "out of range visit",
			doc:     "steps:\n  - action: visit\n    visit: {coordinate: {latitude: 120, longitude: 0}}\n",
			wantErr: true,
		},
		{
			name: "client-wide fail",
			doc:  "steps:\n  - action: fail\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRun(t *testing.T) {
	s, err := Load("testdata/commute.yaml")
	require.NoError(t, err)

	client := newClient(t)
	report, err := s.Run(context.Background(), client)
	require.NoError(t, err)

	assert.Equal(t, "commute", report.Scenario)
	assert.Equal(t, 8, report.Steps)

	// First visit reaches phone (two observers) and watch, the second only
	// phone. Stopping watch and the client-wide failure add one failure per
	// observer still listening.
	assert.Equal(t, 5, report.Successes())
	assert.Equal(t, 3, report.Failures())

	var phone []Dispatch
	for _, d := range report.Dispatches {
		if d.Subscription == "phone" {
			phone = append(phone, d)
		}
	}
	require.Len(t, phone, 6)
	assert.Equal(t, 0, phone[0].Observer)
	assert.Equal(t, 1, phone[1].Observer)
	assert.Equal(t, 3, phone[0].Step)

	last := phone[len(phone)-1]
	require.True(t, last.Result.IsFailure())
	assert.ErrorIs(t, last.Result.Err(), errors.ErrPermissionDenied)
	assert.Contains(t, last.Result.Err().Error(), "location access revoked")

	require.Len(t, report.Subscriptions, 2)

	phoneFinal := report.Subscriptions[0]
	assert.Equal(t, "phone", phoneFinal.Name)
	assert.Equal(t, visits.StateFinished, phoneFinal.State)
	assert.True(t, phoneFinal.Removed)
	require.NotNil(t, phoneFinal.LastValue)
	assert.InDelta(t, 45.4781, phoneFinal.LastValue.Coordinate.Latitude, 1e-9)

	watchFinal := report.Subscriptions[1]
	assert.Equal(t, "watch", watchFinal.Name)
	assert.Equal(t, visits.StateFinished, watchFinal.State)
	assert.False(t, watchFinal.Removed, "stopped with keep")
	require.NotNil(t, watchFinal.LastValue)
	assert.InDelta(t, 45.4642, watchFinal.LastValue.Coordinate.Latitude, 1e-9)

	assert.Equal(t, 1, client.Len())
}

func TestRun_IdleSubscriptionIgnoresVisits(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - {action: subscribe, subscription: lazy, start: false}
  - action: visit
    subscription: lazy
    visit: {coordinate: {latitude: 1, longitude: 1}}
  - {action: start, subscription: lazy}
`))
	require.NoError(t, err)

	report, err := s.Run(context.Background(), newClient(t))
	require.NoError(t, err)

	assert.Empty(t, report.Dispatches)
	require.Len(t, report.Subscriptions, 1)
	assert.Equal(t, visits.StateRunning, report.Subscriptions[0].State)
	assert.Nil(t, report.Subscriptions[0].LastValue)
}

func TestRun_Canceled(t *testing.T) {
	s, err := Load("testdata/commute.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Run(ctx, newClient(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Steps)
}

func TestRun_ClosedClient(t *testing.T) {
	s, err := Load("testdata/commute.yaml")
	require.NoError(t, err)

	client := newClient(t)
	require.NoError(t, client.Close())

	report, err := s.Run(context.Background(), client)
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.Zero(t, report.Steps)
}

func TestRun_Logging(t *testing.T) {
	s, err := Load("testdata/commute.yaml")
	require.NoError(t, err)

	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	_, err = s.Run(ctx, newClient(t))
	require.NoError(t, err)

	tl.AssertContains(t, "Scenario finished")
	tl.AssertContains(t, `"scenario":"commute"`)
}
