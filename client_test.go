package waypoint

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/logging"
	"github.com/agentstation/waypoint/pkg/visits"
)

var (
	milan = visits.Visit{Coordinate: visits.Coordinate{Latitude: 45.4642, Longitude: 9.19}, HorizontalAccuracy: 10}
	rome  = visits.Visit{Coordinate: visits.Coordinate{Latitude: 41.9028, Longitude: 12.4964}, HorizontalAccuracy: 25}
)

// collector records results from every subscription it observes.
type collector struct {
	mu      sync.Mutex
	results []visits.Result
}

func (c *collector) observe(res visits.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
}

func (c *collector) all() []visits.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]visits.Result(nil), c.results...)
}

func newTestClient(t *testing.T, opts ...Option) Client {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNopLogger())}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Requests())

	_, err = New(WithLogger(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestSubscribe(t *testing.T) {
	c := newTestClient(t)
	var col collector

	r, err := c.Subscribe(col.observe)
	require.NoError(t, err)

	assert.Equal(t, visits.StateRunning, r.State(), "auto-start is on by default")
	assert.Equal(t, 1, c.Len())

	held, ok := c.Request(r.ID())
	require.True(t, ok)
	assert.Same(t, r, held)

	assert.Equal(t, 1, c.Deliver(milan))
	require.Len(t, col.all(), 1)
	v, _ := col.all()[0].Visit()
	assert.Equal(t, milan, v)
}

func TestSubscribe_WithoutAutoStart(t *testing.T) {
	c := newTestClient(t, WithAutoStart(false))
	var col collector

	r, err := c.Subscribe(col.observe)
	require.NoError(t, err)
	assert.Equal(t, visits.StateIdle, r.State())

	assert.Zero(t, c.Deliver(milan))
	assert.Empty(t, col.all())

	require.NoError(t, c.Start(r.ID()))
	assert.Equal(t, 1, c.Deliver(rome))
	assert.Len(t, col.all(), 1)
}

func TestAdd_DeduplicatesByID(t *testing.T) {
	c := newTestClient(t)
	r := visits.NewRequest()

	assert.True(t, c.Add(r))
	assert.False(t, c.Add(r), "same request")
	assert.False(t, c.Add(visits.NewRequest(visits.WithID(r.ID()))), "equal request")
	assert.False(t, c.Add(nil))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, visits.StateIdle, r.State(), "Add does not start the request")
}

func TestAdd_RejectsFinished(t *testing.T) {
	c := newTestClient(t)
	r := visits.NewRequest()
	r.Stop()

	assert.False(t, c.Add(r))
	assert.Zero(t, c.Len())

	kept := visits.NewRequest()
	kept.StopWithReason(errors.ErrTimeout, false)
	assert.False(t, c.Add(kept))
	assert.Zero(t, c.Len())
}

func TestAdd_KeepsExistingStopHandler(t *testing.T) {
	c := newTestClient(t)
	r := visits.NewRequest()

	var handled bool
	r.OnStop(func(*visits.Request, error, bool) { handled = true })
	require.True(t, c.Add(r))

	r.Stop()

	assert.True(t, handled)
	assert.Zero(t, c.Len())
}

func TestAdd_SharedAcrossClients(t *testing.T) {
	a := newTestClient(t)
	b := newTestClient(t)
	r := visits.NewRequest()

	require.True(t, a.Add(r))
	require.True(t, b.Add(r))

	var removedFromA, removedFromB int
	a.OnRemoved(func(*visits.Request, error) { removedFromA++ })
	b.OnRemoved(func(*visits.Request, error) { removedFromB++ })

	require.NoError(t, a.Stop(r.ID()))

	assert.Zero(t, a.Len())
	assert.Zero(t, b.Len())
	assert.Equal(t, 1, removedFromA)
	assert.Equal(t, 1, removedFromB)
}

func TestRequests_InsertionOrder(t *testing.T) {
	c := newTestClient(t)
	var ids []visits.ID
	for range 5 {
		r, err := c.Subscribe()
		require.NoError(t, err)
		ids = append(ids, r.ID())
	}

	require.NoError(t, c.Stop(ids[2]))
	ids = append(ids[:2], ids[3:]...)

	var got []visits.ID
	for _, r := range c.Requests() {
		got = append(got, r.ID())
	}
	assert.Equal(t, ids, got)
}

func TestLifecycle_NotFound(t *testing.T) {
	c := newTestClient(t)
	missing := visits.NewID()

	for name, err := range map[string]error{
		"start":    c.Start(missing),
		"pause":    c.Pause(missing),
		"stop":     c.Stop(missing),
		"reason":   c.StopWithReason(missing, errors.ErrTimeout, true),
	} {
		assert.True(t, errors.IsNotFound(err), name)
	}

	delivered, err := c.Complete(missing, milan)
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, delivered)

	_, err = c.Observe(missing, func(visits.Result) {})
	assert.True(t, errors.IsNotFound(err))
	_, err = c.Status(missing)
	assert.True(t, errors.IsNotFound(err))
}

func TestStop_EvictsAndNotifies(t *testing.T) {
	c := newTestClient(t)
	var col collector

	var removed []error
	c.OnRemoved(func(_ *visits.Request, reason error) {
		removed = append(removed, reason)
	})

	r, err := c.Subscribe(col.observe)
	require.NoError(t, err)
	require.NoError(t, c.Stop(r.ID()))

	assert.Equal(t, visits.StateFinished, r.State())
	assert.Zero(t, c.Len())
	require.Len(t, col.all(), 1)
	assert.ErrorIs(t, col.all()[0].Err(), errors.ErrCanceled)
	require.Len(t, removed, 1)
	assert.ErrorIs(t, removed[0], errors.ErrCanceled)

	assert.True(t, errors.IsNotFound(c.Stop(r.ID())))
}

func TestStopWithReason_Keep(t *testing.T) {
	c := newTestClient(t)
	var col collector

	r, err := c.Subscribe(col.observe)
	require.NoError(t, err)
	require.NoError(t, c.StopWithReason(r.ID(), errors.ErrTimeout, false))

	assert.Equal(t, 1, c.Len(), "request stays in the set")
	status, err := c.Status(r.ID())
	require.NoError(t, err)
	assert.Equal(t, visits.StateFinished, status.State)

	assert.Zero(t, c.Deliver(milan))
	require.Len(t, col.all(), 1)
	assert.ErrorIs(t, col.all()[0].Err(), errors.ErrTimeout)
}

func TestRequestStoppedDirectly(t *testing.T) {
	c := newTestClient(t)

	r, err := c.Subscribe()
	require.NoError(t, err)

	r.Stop()
	assert.Zero(t, c.Len())
}

func TestDeliver_SkipsPausedAndIdle(t *testing.T) {
	c := newTestClient(t)
	var running, paused, idle collector

	r1, err := c.Subscribe(running.observe)
	require.NoError(t, err)
	r2, err := c.Subscribe(paused.observe)
	require.NoError(t, err)
	require.NoError(t, c.Pause(r2.ID()))
	r3 := visits.NewRequest()
	r3.AddObserver(idle.observe)
	require.True(t, c.Add(r3))

	assert.Equal(t, 1, c.Deliver(milan))
	assert.Len(t, running.all(), 1)
	assert.Empty(t, paused.all())
	assert.Empty(t, idle.all())

	last, ok := r1.LastValue()
	require.True(t, ok)
	assert.Equal(t, milan, last)
	_, ok = r2.LastValue()
	assert.False(t, ok)
}

func TestDeliver_ObserverStopsItsRequest(t *testing.T) {
	c := newTestClient(t)
	var other collector

	var self *visits.Request
	self, err := c.Subscribe(func(res visits.Result) {
		if res.IsSuccess() {
			self.Stop()
		}
	})
	require.NoError(t, err)
	_, err = c.Subscribe(other.observe)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Deliver(milan))
	assert.Equal(t, 1, c.Len())
	assert.Len(t, other.all(), 1, "later subscriptions still receive the visit")
}

func TestFail_BroadcastsAndEvicts(t *testing.T) {
	c := newTestClient(t)
	var a, b collector

	_, err := c.Subscribe(a.observe)
	require.NoError(t, err)
	rb, err := c.Subscribe(b.observe)
	require.NoError(t, err)
	require.NoError(t, c.Pause(rb.ID()))

	var removed int
	c.OnRemoved(func(*visits.Request, error) { removed++ })

	assert.Equal(t, 2, c.Fail(errors.ErrPermissionDenied))
	assert.Zero(t, c.Len())
	assert.Equal(t, 2, removed)

	for _, col := range []*collector{&a, &b} {
		require.Len(t, col.all(), 1)
		assert.ErrorIs(t, col.all()[0].Err(), errors.ErrPermissionDenied)
	}

	assert.Zero(t, c.Fail(errors.ErrTimeout))
}

func TestFail_NilReasonCancels(t *testing.T) {
	c := newTestClient(t)
	var col collector

	_, err := c.Subscribe(col.observe)
	require.NoError(t, err)
	c.Fail(nil)

	require.Len(t, col.all(), 1)
	assert.ErrorIs(t, col.all()[0].Err(), errors.ErrCanceled)
}

func TestObserve(t *testing.T) {
	c := newTestClient(t)
	var first, second collector

	r, err := c.Subscribe(first.observe)
	require.NoError(t, err)

	token, err := c.Observe(r.ID(), second.observe)
	require.NoError(t, err)
	assert.NotZero(t, token)

	c.Deliver(milan)
	assert.Len(t, second.all(), 1)

	require.NoError(t, c.Unobserve(r.ID(), token))
	assert.True(t, errors.IsNotFound(c.Unobserve(r.ID(), token)))

	c.Deliver(rome)
	assert.Len(t, first.all(), 2)
	assert.Len(t, second.all(), 1)

	_, err = c.Observe(r.ID(), nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestComplete_ReportsDelivery(t *testing.T) {
	c := newTestClient(t)
	r, err := c.Subscribe()
	require.NoError(t, err)

	delivered, err := c.Complete(r.ID(), milan)
	require.NoError(t, err)
	assert.True(t, delivered)

	require.NoError(t, c.Pause(r.ID()))
	delivered, err = c.Complete(r.ID(), rome)
	require.NoError(t, err)
	assert.False(t, delivered)

	v, ok := r.LastValue()
	require.True(t, ok)
	assert.Equal(t, milan, v)
}

func TestStatuses(t *testing.T) {
	c := newTestClient(t)

	r1, err := c.Subscribe()
	require.NoError(t, err)
	r2, err := c.Subscribe(func(visits.Result) {})
	require.NoError(t, err)
	delivered, err := c.Complete(r1.ID(), milan)
	require.NoError(t, err)
	assert.True(t, delivered)

	statuses := c.Statuses()
	require.Len(t, statuses, 2)

	assert.Equal(t, r1.ID(), statuses[0].ID)
	require.NotNil(t, statuses[0].LastValue)
	assert.Equal(t, milan, *statuses[0].LastValue)
	assert.Zero(t, statuses[0].Observers)

	assert.Equal(t, r2.ID(), statuses[1].ID)
	assert.Nil(t, statuses[1].LastValue)
	assert.Equal(t, 1, statuses[1].Observers)
}

func TestHooks_Subscribed(t *testing.T) {
	c := newTestClient(t)

	var added []visits.ID
	c.OnSubscribed(func(r *visits.Request) {
		added = append(added, r.ID())
	})
	c.OnSubscribed(nil)

	r, err := c.Subscribe()
	require.NoError(t, err)
	other := visits.NewRequest()
	c.Add(other)
	c.Add(other)

	assert.Equal(t, []visits.ID{r.ID(), other.ID()}, added)
}

func TestHooks_SubscribedCanObserve(t *testing.T) {
	c := newTestClient(t)
	var col collector

	c.OnSubscribed(func(r *visits.Request) {
		r.AddObserver(col.observe)
	})

	_, err := c.Subscribe()
	require.NoError(t, err)
	c.Deliver(milan)
	assert.Len(t, col.all(), 1)
}

func TestClose(t *testing.T) {
	c, err := New(WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	var col collector

	_, err = c.Subscribe(col.observe)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Zero(t, c.Len())
	require.Len(t, col.all(), 1)
	assert.ErrorIs(t, col.all()[0].Err(), errors.ErrCanceled)

	_, err = c.Subscribe()
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.False(t, c.Add(visits.NewRequest()))
}

func TestClient_Logging(t *testing.T) {
	tl := logging.NewTestLogger(t)
	c, err := New(WithLogger(tl.Logger))
	require.NoError(t, err)

	r, err := c.Subscribe()
	require.NoError(t, err)
	require.NoError(t, c.Stop(r.ID()))

	tl.AssertContains(t, "Subscription added")
	tl.AssertContains(t, "Subscription removed")
	tl.AssertContains(t, r.ID().String())
}

func TestClient_Concurrent(t *testing.T) {
	c := newTestClient(t)
	var col collector

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				r, err := c.Subscribe(col.observe)
				if err != nil {
					return
				}
				c.Deliver(milan)
				_ = c.Stop(r.ID())
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, c.Len())
	assert.NotEmpty(t, col.all())
}
