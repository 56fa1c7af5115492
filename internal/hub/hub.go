package hub

import (
	"context"

	"github.com/DoyleJ11/wordchain-client/internal/engine"
)

type HubMsg interface{ isHubMsg() }

// Frame is one published view. Version increases with every publish.
type Frame struct {
	Version int
	View    engine.ViewModel
}

type Subscribe struct {
	ID     string
	Outbox chan Frame // receives the latest frame immediately, then every publish
}

type Unsubscribe struct {
	ID string
}

type PublishView struct {
	View engine.ViewModel
}

type Latest struct {
	Reply chan Frame
}

// Stats is test-only.
type Stats struct {
	Reply chan StatsView
}

type StatsView struct {
	Version     int
	Subscribers int
}

type ShutdownHub struct{}

func (Subscribe) isHubMsg()   {}
func (Unsubscribe) isHubMsg() {}
func (PublishView) isHubMsg() {}
func (Latest) isHubMsg()      {}
func (Stats) isHubMsg()       {}
func (ShutdownHub) isHubMsg() {}

// Hub fans views out to renderer connections.
type Hub struct {
	inbox  chan HubMsg
	latest Frame
	subs   map[string]chan Frame
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		subs:   make(map[string]chan Frame),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.done }

// Subscribe registers outbox. It reports false, leaving outbox untouched,
// once the hub has stopped.
func (h *Hub) Subscribe(id string, outbox chan Frame) bool {
	select {
	case h.inbox <- Subscribe{ID: id, Outbox: outbox}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) Unsubscribe(id string) {
	select {
	case h.inbox <- Unsubscribe{ID: id}:
	case <-h.ctx.Done():
	}
}

// LatestFrame returns the most recent frame; Version is 0 before the first
// publish.
func (h *Hub) LatestFrame(ctx context.Context) (Frame, error) {
	reply := make(chan Frame, 1)
	select {
	case h.inbox <- Latest{Reply: reply}:
	case <-h.ctx.Done():
		return Frame{}, h.ctx.Err()
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
	select {
	case f := <-reply:
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Publish implements session.Publisher.
func (h *Hub) Publish(vm engine.ViewModel) {
	select {
	case h.inbox <- PublishView{View: vm}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				h.subs[msg.ID] = msg.Outbox
				if h.latest.Version > 0 {
					h.send(msg.ID, msg.Outbox, h.latest)
				}

			case Unsubscribe:
				if ch, ok := h.subs[msg.ID]; ok {
					close(ch)
					delete(h.subs, msg.ID)
				}

			case PublishView:
				h.latest = Frame{Version: h.latest.Version + 1, View: msg.View}
				for id, ch := range h.subs {
					h.send(id, ch, h.latest)
				}

			case Latest:
				msg.Reply <- h.latest

			case Stats:
				msg.Reply <- StatsView{Version: h.latest.Version, Subscribers: len(h.subs)}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// send drops a subscriber whose outbox is full.
func (h *Hub) send(id string, ch chan Frame, f Frame) {
	select {
	case ch <- f:
	default:
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.subs {
		close(ch) // no more frames
		delete(h.subs, id)
	}
	h.cancel()
}
