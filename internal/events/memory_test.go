package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryBus_DeliversPerNotebook(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bus.Subscribe(ctx, "nb-a")
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx, "nb-b")
	require.NoError(t, err)

	ev, err := New(JobUpdated, "nb-a", map[string]string{"status": "polling"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))

	got := recv(t, a)
	assert.Equal(t, JobUpdated, got.Type)
	var data map[string]string
	require.NoError(t, json.Unmarshal(got.Data, &data))
	assert.Equal(t, "polling", data["status"])

	select {
	case ev := <-b:
		t.Fatalf("unexpected event for nb-b: %+v", ev)
	default:
	}
}

func TestMemoryBus_CancelClosesChannel(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, "nb")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}

	// publishing after unsubscribe must not panic on a closed channel
	ev, _ := New(SourcesChanged, "nb", nil)
	assert.NoError(t, bus.Publish(context.Background(), ev))
}

func TestMemoryBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := bus.Subscribe(ctx, "nb")
	require.NoError(t, err)

	ev, _ := New(TurnUpdated, "nb", nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = bus.Publish(ctx, ev)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
