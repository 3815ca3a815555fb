// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithRequestID returns a context carrying a logger annotated with the given
// correlation id, so every downstream log line in a request or job
// automatically carries it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := logger().With().Str("request_id", requestID).Logger()
	return context.WithValue(ctx, ctxKey{}, &l)
}

// Ctx returns the logger embedded in ctx by WithRequestID, or the global
// logger if none was attached.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	l := logger()
	return &l
}
