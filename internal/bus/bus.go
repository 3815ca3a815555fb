// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package bus

import (
	"context"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/models"
)

// Bus is the fan-out surface used by the rest of the server: pipeline
// stages publish event/cluster updates, and the streaming API handler
// subscribes on behalf of each connected client.
type Bus struct {
	hub    *Hub
	bridge bridge
}

// New builds a Bus. When cfg.URL is non-empty and the binary was built with
// -tags=nats, published messages are also mirrored to a NATS subject so
// other server processes observe them (cross-process fan-out, §5). Without
// either, the bus operates purely in-process.
func New(cfg *config.BusConfig) (*Bus, error) {
	b, err := newBridge(cfg)
	if err != nil {
		return nil, err
	}
	return &Bus{hub: NewHub(), bridge: b}, nil
}

// Run starts the hub's dispatch loop and the cross-process bridge (if any)
// until ctx is canceled.
func (b *Bus) Run(ctx context.Context) {
	go b.bridge.run(ctx, b.hub)
	b.hub.Run(ctx)
}

// EventFrame is the decoded JSON payload of an event_update SSE frame: the
// outer SSE "event:" name is always "event_update" (§4.4), but the decoded
// "data:" payload distinguishes the two message kinds §4.3 defines.
type EventFrame struct {
	Type  string        `json:"type"`
	Event *models.Event `json:"event"`
}

// Message kinds carried inside an EventFrame, §4.3.
const (
	FrameTypeNewEvent     = "new_event"
	FrameTypeStatusChange = "status_change"
)

// PublishNewEvent broadcasts the pipeline's terminal notification for a
// freshly enriched event (§4.1 stage 6 "broadcast").
func (b *Bus) PublishNewEvent(e *models.Event) {
	b.publish(Message{Type: EventTypeEventUpdate, Data: EventFrame{Type: FrameTypeNewEvent, Event: e}})
}

// PublishStatusChange broadcasts an operator-triage status transition
// (§4.4 "Status update").
func (b *Bus) PublishStatusChange(e *models.Event) {
	b.publish(Message{Type: EventTypeEventUpdate, Data: EventFrame{Type: FrameTypeStatusChange, Event: e}})
}

func (b *Bus) publish(msg Message) {
	b.hub.Publish(msg)
	b.bridge.publish(msg)
}

// Subscribe registers a new streaming client. The returned Subscriber's
// Messages channel begins with a synthetic "connected" control frame,
// matching §4.3's handshake, before any broadcast traffic. Callers MUST
// invoke the returned unsubscribe func on every exit path.
func (b *Bus) Subscribe() (*Subscriber, func()) {
	sub, unsubscribe := b.hub.Subscribe()
	select {
	case sub.messages <- Message{Type: EventTypeConnected, Data: ConnectedFrame{Status: "connected"}}:
	default:
	}
	return sub, unsubscribe
}

// ConnectedFrame is the payload of the synthetic handshake message sent to
// each subscriber immediately on connect.
type ConnectedFrame struct {
	Status string `json:"status"`
}
