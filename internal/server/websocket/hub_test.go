package websocket

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunningHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, cancel
}

func TestHub_Broadcast(t *testing.T) {
	hub, _ := newRunningHub(t)

	client := NewClient("test-1", hub, nil)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(Message{Type: "visit.delivered", Timestamp: time.Now()})

	select {
	case got := <-client.send:
		assert.Equal(t, "visit.delivered", got.Type)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub, _ := newRunningHub(t)

	client := NewClient("test-1", hub, nil)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, hub.ClientCount(), "double unregister is harmless")
}

func TestHub_SlowClientDisconnected(t *testing.T) {
	hub, _ := newRunningHub(t)

	client := NewClient("slow", hub, nil)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	// Nobody drains client.send, so it fills up.
	require.Eventually(t, func() bool {
		hub.Broadcast(Message{Type: "visit.delivered"})
		return hub.ClientCount() == 0
	}, 5*time.Second, time.Millisecond)
}

func TestHub_Shutdown(t *testing.T) {
	hub, cancel := newRunningHub(t)

	client := NewClient("test-1", hub, nil)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "test-1", client.ID())
}

func TestHub_RegisterAfterShutdownDoesNotBlock(t *testing.T) {
	hub, cancel := newRunningHub(t)
	cancel()
	require.Eventually(t, func() bool {
		select {
		case <-hub.done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := range 50 {
			client := NewClient(fmt.Sprintf("late-%d", i), hub, nil)
			assert.False(t, hub.Register(client))
			_, open := <-client.send
			assert.False(t, open)
			hub.Unregister(client)
			hub.Broadcast(Message{Type: "visit.delivered"})
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("hub blocked after shutdown")
	}
	assert.Zero(t, hub.ClientCount())
}
