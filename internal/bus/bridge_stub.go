// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build !nats

package bus

import (
	"github.com/attentionmap/attention-map-server/internal/config"
)

// newBridge always returns the in-process no-op bridge when the binary was
// not built with -tags=nats.
func newBridge(_ *config.BusConfig) (bridge, error) {
	return noopBridge{}, nil
}
