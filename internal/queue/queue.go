// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package queue is the Work Queue: a durable FIFO of pipeline jobs
// (SPEC_FULL.md §4.1). Jobs survive process restarts when built with
// -tags=nats (Watermill/NATS JetStream, following the teacher's
// eventprocessor publisher/subscriber split); otherwise an in-process
// channel-backed stub is used.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is one unit of pipeline work: process (or reprocess) a single event.
// MediaBytes/MediaContentType carry the raw upload (§2 "enqueues a
// pipeline job carrying the event id + media bytes"); both are empty for a
// reprocess job, which re-derives classification/clustering from the
// already-persisted event instead.
type Job struct {
	EventID          uuid.UUID `json:"event_id"`
	Reprocess        bool      `json:"reprocess"`
	MediaBytes       []byte    `json:"media_bytes,omitempty"`
	MediaContentType string    `json:"media_content_type,omitempty"`
	// Attempt is incremented by the queue on each top-level retry (§4.1
	// "bounded retries on top-level job failure only").
	Attempt int `json:"attempt"`
}

// MaxAttempts bounds top-level job retries (§4.1).
const MaxAttempts = 3

// backoffBase is the minimum delay between a failed job's retries (§4.1
// "bounded retries with >=60s backoff on top-level job failure only").
const backoffBase = 60 * time.Second

// Queue enqueues and delivers pipeline jobs.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Consume delivers jobs to handle until ctx is canceled. handle's error
	// return triggers bounded retry with backoff; returning nil acks the job.
	Consume(ctx context.Context, handle func(context.Context, Job) error) error
	Close() error
}

func marshalJob(j Job) ([]byte, error)   { return json.Marshal(j) }
func unmarshalJob(b []byte) (Job, error) { var j Job; err := json.Unmarshal(b, &j); return j, err }
