package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToMatchingSubscribers(t *testing.T) {
	bus := NewBus()

	appointments, cancelA := bus.Subscribe("appointments")
	defer cancelA()
	everything, cancelB := bus.Subscribe()
	defer cancelB()

	bus.Publish("labTests")

	select {
	case event := <-everything:
		assert.Equal(t, "labTests", event.Collection)
	case <-time.After(time.Second):
		t.Fatal("catch-all subscriber missed the event")
	}

	select {
	case event := <-appointments:
		t.Fatalf("appointments subscriber received %s", event.Collection)
	default:
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus()

	_, cancel := bus.Subscribe("appointments")
	defer cancel()

	// A subscriber that never drains must not stall publishers; overflow
	// events are dropped and reconciled by the periodic refresh.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish("appointments")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()

	events, cancel := bus.Subscribe("appointments")
	cancel()

	_, open := <-events
	require.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	bus.Publish("appointments")

	// Cancel is safe to call twice.
	cancel()
}
