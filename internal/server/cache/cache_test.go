package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

func TestTombstones(t *testing.T) {
	c := New(time.Minute, time.Minute)

	r := visits.NewRequest()
	r.Start()
	r.Complete(visits.Visit{Coordinate: visits.Coordinate{Latitude: 1, Longitude: 2}})
	r.Fail(errors.ErrPermissionDenied)

	c.Put(NewTombstone(r, errors.ErrPermissionDenied))
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get(r.ID())
	require.True(t, ok)
	assert.Equal(t, r.ID(), got.ID)
	assert.Equal(t, visits.StateFinished, got.State)
	require.NotNil(t, got.LastValue)
	assert.Equal(t, 2.0, got.LastValue.Coordinate.Longitude)
	assert.Equal(t, visits.ReasonPermissionDenied, got.Reason)
	assert.Equal(t, "permission denied", got.Message)
	assert.False(t, got.RemovedAt.IsZero())

	c.Forget(r.ID())
	_, ok = c.Get(r.ID())
	assert.False(t, ok)
}

func TestTombstones_Expire(t *testing.T) {
	c := New(20*time.Millisecond, time.Hour)

	r := visits.NewRequest()
	c.Put(NewTombstone(r, nil))

	require.Eventually(t, func() bool {
		_, ok := c.Get(r.ID())
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestTombstones_Flush(t *testing.T) {
	c := New(time.Minute, time.Minute)
	for range 3 {
		c.Put(NewTombstone(visits.NewRequest(), errors.ErrCanceled))
	}
	assert.Equal(t, 3, c.Len())

	c.Flush()
	assert.Zero(t, c.Len())
}
