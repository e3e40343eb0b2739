package eventbus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zarafe/internal/logger"
)

func TestPublishDelivers(t *testing.T) {
	bus := NewBus(8, logger.Nop())
	defer bus.Shutdown()

	got := make(chan Event, 1)
	bus.Subscribe(SessionSaved, HandlerFunc(func(e Event) { got <- e }))
	bus.Subscribe(EventsChanged, HandlerFunc(func(Event) { t.Error("wrong type delivered") }))

	require.True(t, bus.Publish(Event{Type: SessionSaved, Recording: "/p/r1", Count: 3}))

	select {
	case e := <-got:
		assert.Equal(t, "/p/r1", e.Recording)
		assert.Equal(t, 3, e.Count)
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(8, logger.Nop())

	var calls atomic.Int32
	h := HandlerFunc(func(Event) { calls.Add(1) })
	bus.Subscribe(ConfigReloaded, h)
	bus.Unsubscribe(ConfigReloaded, h)

	bus.Publish(Event{Type: ConfigReloaded})
	bus.Shutdown()
	assert.Zero(t, calls.Load())
}

func TestShutdownDrainsQueue(t *testing.T) {
	bus := NewBus(16, logger.Nop())

	var calls atomic.Int32
	bus.Subscribe(EventsChanged, HandlerFunc(func(Event) {
		time.Sleep(5 * time.Millisecond)
		calls.Add(1)
	}))
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Type: EventsChanged})
	}
	bus.Shutdown()

	assert.EqualValues(t, 10, calls.Load())
	assert.False(t, bus.Publish(Event{Type: EventsChanged}), "closed bus rejects events")
	bus.Shutdown()
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := NewBus(4, logger.Nop())

	done := make(chan struct{})
	bus.Subscribe(RecordingLoaded, HandlerFunc(func(Event) { panic("boom") }))
	bus.Subscribe(RecordingLoaded, HandlerFunc(func(Event) { close(done) }))
	bus.Publish(Event{Type: RecordingLoaded})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler not called")
	}
	bus.Shutdown()
}

func TestHandlersSeeEventsInOrder(t *testing.T) {
	bus := NewBus(64, logger.Nop())

	var got []int
	bus.Subscribe(SessionSaved, HandlerFunc(func(e Event) {
		if e.Count%2 == 0 {
			time.Sleep(time.Millisecond)
		}
		got = append(got, e.Count)
	}))
	want := make([]int, 0, 20)
	for i := 0; i < 20; i++ {
		require.True(t, bus.Publish(Event{Type: SessionSaved, Recording: "/p/r1", Count: i}))
		want = append(want, i)
	}
	bus.Shutdown()

	assert.Equal(t, want, got)
}
