// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build nats

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
)

const jobSubject = "attentionmap.pipeline.jobs"

// NATSQueue is a durable, JetStream-backed FIFO so pipeline jobs survive a
// process restart, following the teacher's eventprocessor Watermill
// publisher/subscriber pair.
type NATSQueue struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
}

// New builds a NATSQueue. A non-empty cfg.URL is required in a -tags=nats
// binary; without one there is no durable transport to connect to.
func New(cfg *config.BusConfig) (Queue, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("queue: bus.url is required when built with -tags=nats")
	}

	logger := watermill.NewStdLogger(false, false)
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: false, AutoProvision: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats queue publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		SubscribersCount: 4,
		JetStream:        wmNats.JetStreamConfig{Disabled: false, AutoProvision: true, DurableCalculator: wmNats.DefaultDurableCalculator},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats queue subscriber: %w", err)
	}

	return &NATSQueue{publisher: pub, subscriber: sub, logger: logger}, nil
}

func (q *NATSQueue) Enqueue(_ context.Context, job Job) error {
	payload, err := marshalJob(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return q.publisher.Publish(jobSubject, msg)
}

func (q *NATSQueue) Consume(ctx context.Context, handle func(context.Context, Job) error) error {
	messages, err := q.subscriber.Subscribe(ctx, jobSubject)
	if err != nil {
		return fmt.Errorf("subscribe to job subject: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case wmMsg, ok := <-messages:
			if !ok {
				return nil
			}
			job, err := unmarshalJob(wmMsg.Payload)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("dropping unparseable pipeline job message")
				wmMsg.Ack()
				continue
			}

			if err := handle(ctx, job); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("event_id", job.EventID.String()).Int("attempt", job.Attempt).Msg("pipeline job failed")
				wmMsg.Ack() // ack the original; failure handling re-enqueues explicitly below
				if job.Attempt+1 >= MaxAttempts {
					logging.Ctx(ctx).Error().Str("event_id", job.EventID.String()).Msg("pipeline job exhausted retries, dropping")
					continue
				}
				metrics.PipelineJobRetries.Inc()
				go q.scheduleRetry(ctx, job)
				continue
			}
			wmMsg.Ack()
		}
	}
}

func (q *NATSQueue) scheduleRetry(ctx context.Context, job Job) {
	retry := job
	retry.Attempt++
	delay := backoffBase * time.Duration(1<<uint(retry.Attempt-1))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		if err := q.Enqueue(ctx, retry); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("event_id", retry.EventID.String()).Msg("failed to re-enqueue pipeline job retry")
		}
	}
}

func (q *NATSQueue) Close() error {
	if err := q.publisher.Close(); err != nil {
		return err
	}
	return q.subscriber.Close()
}
