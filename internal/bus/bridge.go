// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package bus

import "context"

// bridge mirrors broadcast messages to a cross-process transport so that
// multiple server instances share one logical fan-out bus. The
// build-tagged implementations (bridge_nats.go / bridge_stub.go) follow the
// teacher's eventprocessor publisher/publisher_stub split.
type bridge interface {
	run(ctx context.Context, hub *Hub)
	publish(msg Message)
}

// noopBridge is used whenever no cross-process transport is configured,
// regardless of build tags. The fan-out bus then operates purely
// in-process.
type noopBridge struct{}

func (noopBridge) publish(Message)                {}
func (noopBridge) run(ctx context.Context, _ *Hub) { <-ctx.Done() }
