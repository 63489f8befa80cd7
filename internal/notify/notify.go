// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/logging"
	"github.com/tomtom215/menurank/internal/metrics"
)

// ErrClosed is returned by a closed publisher.
var ErrClosed = errors.New("publisher is closed")

// RunCompleted is published after a ranking run wrote its sinks.
type RunCompleted struct {
	RunID             string    `json:"run_id"`
	Source            string    `json:"source"`
	Sinks             []string  `json:"sinks"`
	StartedAt         time.Time `json:"started_at"`
	Now               time.Time `json:"now"`
	DurationMS        int64     `json:"duration_ms"`
	Users             int       `json:"users"`
	Rankings          int       `json:"rankings"`
	AllergyExclusions int       `json:"allergy_exclusions"`
	Boosted           int       `json:"boosted"`
}

// Notifier announces completed runs.
type Notifier interface {
	RunCompleted(ctx context.Context, event RunCompleted) error
	Close() error
}

// Noop discards notifications. Used when NATS is disabled.
type Noop struct{}

// RunCompleted does nothing.
func (Noop) RunCompleted(context.Context, RunCompleted) error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }

// Publisher publishes notifications through a Watermill publisher.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. The publisher is closed with Close.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewPublisher(pub message.Publisher, topic string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		publisher: pub,
		topic:     topic,
		logger:    logger.With().Str("component", "notify").Logger(),
	}
}

// NewNATSPublisher connects to NATS and publishes on cfg.Topic. Messages go
// out as core NATS publishes; consumers that need durability bind a
// JetStream stream to the subject.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewNATSPublisher(cfg config.NATSConfig, logger zerolog.Logger) (*Publisher, error) {
	wmLogger := watermill.NewSlogLogger(slog.New(logging.NewSlogHandler(
		logger.With().Str("component", "watermill").Logger())))

	natsOpts := []natsgo.Option{
		natsgo.Name("menurank"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(10),
		natsgo.ReconnectWait(time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return NewPublisher(pub, cfg.Topic, logger), nil
}

// RunCompleted publishes event as JSON, keyed by its run id.
func (p *Publisher) RunCompleted(ctx context.Context, event RunCompleted) (err error) {
	defer func() { metrics.RecordNotification(err) }()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("run_id", event.RunID)
	msg.Metadata.Set("content_type", "application/json")
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Debug().Str("run_id", event.RunID).Str("topic", p.topic).Msg("Run notification published")
	return nil
}

// Close closes the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
