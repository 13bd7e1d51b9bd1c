package eventbus

import (
	"runtime"
	"testing"
	"time"

	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInOrderPerSession(t *testing.T) {
	bus := New(logger.NewNopLogger())
	defer bus.Close()

	events, release, err := bus.Subscribe("s1")
	require.NoError(t, err)
	defer release()

	// Enough successive publishes that any per-message fan-out goroutine
	// would scramble the order.
	const n = 40
	for i := 1; i <= n; i++ {
		require.NoError(t, bus.Publish(progress.Event{
			Kind:      progress.EventStageAdvance,
			SessionID: "s1",
			Stage:     i,
			At:        time.Now(),
		}))
	}

	for i := 1; i <= n; i++ {
		select {
		case ev := <-events:
			assert.Equal(t, i, ev.Stage, "events must arrive in publish order")
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestBusSessionIsolation(t *testing.T) {
	bus := New(logger.NewNopLogger())
	defer bus.Close()

	s1, release1, err := bus.Subscribe("s1")
	require.NoError(t, err)
	defer release1()

	require.NoError(t, bus.Publish(progress.Event{Kind: progress.EventStageAdvance, SessionID: "s2", Stage: 1, At: time.Now()}))
	require.NoError(t, bus.Publish(progress.Event{Kind: progress.EventStageAdvance, SessionID: "s1", Stage: 2, At: time.Now()}))

	select {
	case ev := <-s1:
		assert.Equal(t, "s1", ev.SessionID, "subscriber must only see its own session")
		assert.Equal(t, 2, ev.Stage)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for s1 event")
	}
}

func TestBusReleaseClosesChannel(t *testing.T) {
	bus := New(logger.NewNopLogger())
	defer bus.Close()

	events, release, err := bus.Subscribe("s1")
	require.NoError(t, err)

	release()
	release() // safe to call twice

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel must close after release")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after release")
	}
}

func TestBusReleaseStopsPumpWithoutConsumer(t *testing.T) {
	bus := New(logger.NewNopLogger())
	defer bus.Close()

	base := runtime.NumGoroutine()

	_, release, err := bus.Subscribe("s1")
	require.NoError(t, err)

	// Fill well past the subscriber buffer so the pump wedges on a send
	// nobody is reading.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 80; i++ {
			bus.Publish(progress.Event{Kind: progress.EventStageAdvance, SessionID: "s1", Stage: i, At: time.Now()})
		}
	}()
	time.Sleep(100 * time.Millisecond)

	release()
	<-done

	// Poll on the test goroutine itself: require.Eventually runs the
	// condition in a fresh goroutine each tick, which keeps the observed
	// count above base even when every bus goroutine has exited.
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > base {
		if time.Now().After(deadline) {
			t.Fatal("pump must exit on release even though nothing drains the channel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBusFirehoseSeesAllSessions(t *testing.T) {
	bus := New(logger.NewNopLogger())
	defer bus.Close()

	all, release, err := bus.SubscribeFirehose()
	require.NoError(t, err)
	defer release()

	require.NoError(t, bus.Publish(progress.Event{Kind: progress.EventCategoryCompleted, SessionID: "s1", Category: "mains", At: time.Now()}))
	require.NoError(t, bus.Publish(progress.Event{Kind: progress.EventCategoryCompleted, SessionID: "s2", Category: "desserts", At: time.Now()}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-all:
			seen[ev.SessionID] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for firehose events")
		}
	}
	assert.True(t, seen["s1"] && seen["s2"])
}
