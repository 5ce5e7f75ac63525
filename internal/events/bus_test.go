package events

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(100, testLogger())
	go bus.Start()
	defer bus.Stop()

	ch := bus.Subscribe(100)
	defer bus.Unsubscribe(ch)

	evt := Event{Type: EventARPExhausted, Timestamp: time.Now(), IP: "10.0.0.5", Interface: "eth0"}
	bus.Publish(evt)

	select {
	case received := <-ch:
		if received.Type != EventARPExhausted {
			t.Errorf("received event type = %q, want %q", received.Type, EventARPExhausted)
		}
		if received.IP != "10.0.0.5" {
			t.Error("ip not preserved")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus(100, testLogger())
	go bus.Start()
	defer bus.Stop()

	ch1 := bus.Subscribe(100)
	ch2 := bus.Subscribe(100)
	defer bus.Unsubscribe(ch1)
	defer bus.Unsubscribe(ch2)

	bus.Publish(Event{Type: EventARPConflict, Timestamp: time.Now()})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Type != EventARPConflict {
				t.Errorf("event type = %q, want %q", e.Type, EventARPConflict)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event on subscriber")
		}
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(100, testLogger())
	go bus.Start()
	defer bus.Stop()

	ch := bus.Subscribe(100)
	bus.Unsubscribe(ch)

	bus.Publish(Event{Type: EventFrameDropped, Timestamp: time.Now()})
	time.Sleep(50 * time.Millisecond)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("should not receive events after unsubscribe")
		}
	default:
	}
}

func TestBusNonBlocking(t *testing.T) {
	bus := NewBus(1, testLogger())
	go bus.Start()
	defer bus.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Type: EventFrameForwarded, Timestamp: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked — event bus should be non-blocking")
	}
}
