// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build nats

package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
)

// natsBridge mirrors Hub broadcasts to a NATS subject via Watermill, and
// subscribes to the same subject so events published by other server
// processes reach this process's local subscribers too.
type natsBridge struct {
	channel   string
	publisher message.Publisher
	subscriber message.Subscriber
	cb        *gobreaker.CircuitBreaker[any]
	logger    watermill.LoggerAdapter
}

func newBridge(cfg *config.BusConfig) (bridge, error) {
	if cfg.URL == "" {
		return noopBridge{}, nil
	}

	logger := watermill.NewStdLogger(false, false)
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
	}

	pubCfg := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
		},
	}
	pub, err := wmNats.NewPublisher(pubCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	subCfg := wmNats.SubscriberConfig{
		URL:            cfg.URL,
		NatsOptions:    natsOpts,
		Unmarshaler:    &wmNats.NATSMarshaler{},
		SubscribersCount: 1,
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
		},
	}
	sub, err := wmNats.NewSubscriber(subCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return &natsBridge{
		channel:    cfg.ChannelName,
		publisher:  pub,
		subscriber: sub,
		cb: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    "bus-bridge",
			Timeout: 30 * time.Second,
		}),
		logger: logger,
	}, nil
}

func (b *natsBridge) publish(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to marshal bus message for nats bridge")
		return
	}
	wmMsg := message.NewMessage(watermill.NewUUID(), payload)

	start := time.Now()
	_, err = b.cb.Execute(func() (any, error) {
		return nil, b.publisher.Publish(b.channel, wmMsg)
	})
	metrics.ExternalCallDuration.WithLabelValues("bus_bridge").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrors.WithLabelValues("bus_bridge").Inc()
		logging.Warn().Err(err).Msg("failed to publish bus message to nats")
	}
}

func (b *natsBridge) run(ctx context.Context, hub *Hub) {
	messages, err := b.subscriber.Subscribe(ctx, b.channel)
	if err != nil {
		logging.Error().Err(err).Msg("failed to subscribe to nats bus channel")
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = b.publisher.Close()
			_ = b.subscriber.Close()
			return
		case wmMsg, ok := <-messages:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal(wmMsg.Payload, &msg); err != nil {
				logging.Warn().Err(err).Msg("failed to unmarshal nats bus message")
				wmMsg.Ack()
				continue
			}
			hub.Publish(msg)
			wmMsg.Ack()
		}
	}
}
