// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build !nats

package queue

import (
	"context"
	"sync"
	"time"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
)

// InProcessQueue is a single-process, in-memory FIFO used when the binary
// is not built with -tags=nats. Jobs do not survive a process restart.
type InProcessQueue struct {
	jobs   chan Job
	wg     sync.WaitGroup
	closed chan struct{}
}

// New builds the in-process stub. cfg is accepted for signature parity with
// the NATS-backed constructor but otherwise unused.
func New(_ *config.BusConfig) (Queue, error) {
	return &InProcessQueue{
		jobs:   make(chan Job, 1024),
		closed: make(chan struct{}),
	}, nil
}

func (q *InProcessQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closed:
		return context.Canceled
	}
}

func (q *InProcessQueue) Consume(ctx context.Context, handle func(context.Context, Job) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-q.jobs:
			q.wg.Add(1)
			go q.process(ctx, job, handle)
		}
	}
}

func (q *InProcessQueue) process(ctx context.Context, job Job, handle func(context.Context, Job) error) {
	defer q.wg.Done()

	if err := handle(ctx, job); err == nil {
		return
	} else {
		logging.Ctx(ctx).Warn().Err(err).Str("event_id", job.EventID.String()).Int("attempt", job.Attempt).Msg("pipeline job failed")
	}

	if job.Attempt+1 >= MaxAttempts {
		logging.Ctx(ctx).Error().Str("event_id", job.EventID.String()).Msg("pipeline job exhausted retries, dropping")
		return
	}

	metrics.PipelineJobRetries.Inc()
	retry := job
	retry.Attempt++
	delay := backoffBase * time.Duration(1<<uint(retry.Attempt-1))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		select {
		case q.jobs <- retry:
		case <-ctx.Done():
		}
	}
}

func (q *InProcessQueue) Close() error {
	close(q.closed)
	q.wg.Wait()
	return nil
}
