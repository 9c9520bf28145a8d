// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

//go:build nats

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/motortrack/internal/config"
)

// natsPubSub publishes to and subscribes from JetStream. JetStream stream
// names may not contain dots, so topics are flattened with underscores.
type natsPubSub struct {
	pub *wmNats.Publisher
	sub *wmNats.Subscriber
}

func newNATSPubSub(cfg *config.EventsConfig, logger watermill.LoggerAdapter) (pubSub, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision:    true,
			SubscribeOptions: []natsgo.SubOpt{natsgo.DeliverNew()},
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	return &natsPubSub{pub: pub, sub: sub}, nil
}

func natsTopic(topic string) string {
	return strings.ReplaceAll(topic, ".", "_")
}

func (n *natsPubSub) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
		}
	}
	return n.pub.Publish(natsTopic(topic), msgs...)
}

func (n *natsPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return n.sub.Subscribe(ctx, natsTopic(topic))
}

func (n *natsPubSub) Close() error {
	return errors.Join(n.sub.Close(), n.pub.Close())
}
