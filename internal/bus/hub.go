// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package bus is the real-time Fan-out Bus: broadcasts event_update
// messages to every connected streaming subscriber (SPEC_FULL.md §4.3,
// §6). The in-process Hub is grounded on the teacher's
// internal/websocket.Hub (Register/Unregister channels, priority-based
// select, deterministic client ordering by atomic counter), adapted from
// WebSocket framing to Server-Sent Events framing.
package bus

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
)

// EventType distinguishes the frames a subscriber may receive.
const (
	EventTypeConnected   = "connected"
	EventTypeEventUpdate = "event_update"
)

// Message is one frame broadcast to subscribers.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

var subscriberIDCounter atomic.Uint64

// Subscriber is one live streaming connection's mailbox.
type Subscriber struct {
	id       uint64
	messages chan Message
}

// Messages returns the channel of frames to deliver to this subscriber, in
// order, until it is closed (meaning the subscription ended).
func (s *Subscriber) Messages() <-chan Message { return s.messages }

// Hub maintains the set of live subscribers and broadcasts messages to them.
type Hub struct {
	subscribers map[*Subscriber]bool
	broadcast   chan Message
	register    chan *Subscriber
	unregister  chan *Subscriber
	mu          sync.RWMutex
}

// NewHub builds an empty Hub. Call Run to start its dispatch loop.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		broadcast:   make(chan Message, 256),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
	}
}

// Subscribe registers a new subscriber and returns it along with an
// unsubscribe function that MUST be called exactly once, on every exit path
// (client disconnect, handler return, context cancellation), to guarantee
// cleanup.
func (h *Hub) Subscribe() (*Subscriber, func()) {
	sub := &Subscriber{
		id:       subscriberIDCounter.Add(1),
		messages: make(chan Message, 64),
	}
	h.register <- sub
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.unregister <- sub
		})
	}
	return sub, unsubscribe
}

// Publish broadcasts message to every live subscriber. It is fire-and-forget:
// a full or closed hub channel drops the message rather than blocking the
// publisher (§4.3 "best-effort delivery").
func (h *Hub) Publish(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.BusPublishErrors.Inc()
		logging.Warn().Str("type", message.Type).Msg("fan-out bus broadcast channel full, dropping message")
	}
}

// Run dispatches registrations, unregistrations, and broadcasts until ctx is
// canceled, then closes every live subscriber's channel and returns.
//
// Priority-based select mirrors the teacher's hub: lifecycle events
// (register/unregister) are drained before broadcasts are processed, so
// subscriber state is always consistent when a broadcast is dispatched.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case sub := <-h.register:
			h.addSubscriber(sub)
			continue
		case sub := <-h.unregister:
			h.removeSubscriber(sub)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case sub := <-h.register:
			h.addSubscriber(sub)
		case sub := <-h.unregister:
			h.removeSubscriber(sub)
		case msg := <-h.broadcast:
			h.dispatch(msg)
		}
	}
}

func (h *Hub) addSubscriber(sub *Subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = true
	count := len(h.subscribers)
	h.mu.Unlock()
	metrics.BusSubscribers.Set(float64(count))
}

func (h *Hub) removeSubscriber(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.messages)
	}
	count := len(h.subscribers)
	h.mu.Unlock()
	metrics.BusSubscribers.Set(float64(count))
}

// dispatch delivers msg to every subscriber in deterministic (ID-ascending)
// order, dropping any subscriber whose mailbox is full.
func (h *Hub) dispatch(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := make([]*Subscriber, 0, len(h.subscribers))
	for s := range h.subscribers {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	var stale []*Subscriber
	for _, s := range subs {
		select {
		case s.messages <- msg:
		default:
			stale = append(stale, s)
		}
	}
	for _, s := range stale {
		close(s.messages)
		delete(h.subscribers, s)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := make([]*Subscriber, 0, len(h.subscribers))
	for s := range h.subscribers {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	for _, s := range subs {
		close(s.messages)
		delete(h.subscribers, s)
	}
	logging.Info().Msg("fan-out bus hub stopped, closed all subscribers")
}
