// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package objectstore

import (
	"context"
	"fmt"
)

// NoopStore is selected when no object-store endpoint/credentials are
// configured (local development, CI). It never touches the network and
// returns deterministic synthetic URLs so the pipeline's downstream stages
// still have something to record.
type NoopStore struct{}

var _ Store = NoopStore{}

func (NoopStore) PutMedia(_ context.Context, eventID, _ string, _ []byte) (string, error) {
	return fmt.Sprintf("noop://media/%s", eventID), nil
}

func (NoopStore) PutThumbnail(_ context.Context, eventID string, _ []byte) (string, error) {
	return fmt.Sprintf("noop://thumbnail/%s", eventID), nil
}
