package hub

import (
	"context"
	"testing"
	"time"

	"github.com/DoyleJ11/wordchain-client/internal/engine"
)

// helper: receive one frame with a timeout so tests never hang
func recvFrame(t *testing.T, ch <-chan Frame, within time.Duration) Frame {
	t.Helper()
	select {
	case f, ok := <-ch:
		if !ok {
			t.Fatalf("outbox closed unexpectedly")
		}
		return f
	case <-time.After(within):
		t.Fatalf("timed out waiting for frame")
		return Frame{}
	}
}

func recvStats(t *testing.T, h *Hub) StatsView {
	t.Helper()
	reply := make(chan StatsView, 1)
	h.Inbox() <- Stats{Reply: reply}
	select {
	case s := <-reply:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for stats")
		return StatsView{}
	}
}

func TestHub_SubscriberGetsLatestThenUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)

	h.Publish(engine.ViewModel{Screen: engine.ScreenTitle})

	out := make(chan Frame, 4)
	h.Inbox() <- Subscribe{ID: "r1", Outbox: out}

	first := recvFrame(t, out, 100*time.Millisecond)
	if first.Version != 1 || first.View.Screen != engine.ScreenTitle {
		t.Fatalf("on subscribe: want version 1 title, got %d %s", first.Version, first.View.Screen)
	}

	h.Publish(engine.ViewModel{Screen: engine.ScreenWaiting})
	next := recvFrame(t, out, 100*time.Millisecond)
	if next.Version != 2 || next.View.Screen != engine.ScreenWaiting {
		t.Fatalf("after publish: want version 2 waiting, got %d %s", next.Version, next.View.Screen)
	}

	reply := make(chan Frame, 1)
	h.Inbox() <- Latest{Reply: reply}
	if got := recvFrame(t, reply, 100*time.Millisecond); got.Version != 2 {
		t.Fatalf("latest: want version 2, got %d", got.Version)
	}
}

func TestHub_NoFrameBeforeFirstPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)

	out := make(chan Frame, 1)
	h.Inbox() <- Subscribe{ID: "r1", Outbox: out}
	if s := recvStats(t, h); s.Subscribers != 1 || s.Version != 0 {
		t.Fatalf("want 1 subscriber at version 0, got %+v", s)
	}
	select {
	case f := <-out:
		t.Fatalf("unexpected frame %+v", f)
	default:
	}
}

func TestHub_DropSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)

	out := make(chan Frame, 1)
	h.Inbox() <- Subscribe{ID: "slow", Outbox: out}
	h.Publish(engine.ViewModel{Screen: engine.ScreenTitle})
	h.Publish(engine.ViewModel{Screen: engine.ScreenWaiting})

	if s := recvStats(t, h); s.Subscribers != 0 {
		t.Fatalf("expected slow subscriber to be dropped; Subscribers=%d", s.Subscribers)
	}
	_ = recvFrame(t, out, 100*time.Millisecond)
	if _, ok := <-out; ok {
		t.Fatalf("expected outbox to be closed")
	}
}

func TestHub_UnsubscribeAndShutdownCloseOutboxes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)

	a := make(chan Frame, 1)
	b := make(chan Frame, 1)
	h.Inbox() <- Subscribe{ID: "a", Outbox: a}
	h.Inbox() <- Subscribe{ID: "b", Outbox: b}
	h.Inbox() <- Unsubscribe{ID: "a"}

	if s := recvStats(t, h); s.Subscribers != 1 {
		t.Fatalf("want 1 subscriber, got %d", s.Subscribers)
	}
	if _, ok := <-a; ok {
		t.Fatalf("expected a to be closed")
	}

	h.Inbox() <- ShutdownHub{}
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop")
	}
	if _, ok := <-b; ok {
		t.Fatalf("expected b to be closed")
	}
}
