// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/config"
)

const topic = "menurank.rankings.completed"

func sampleEvent() RunCompleted {
	return RunCompleted{
		RunID:      "run-1",
		Source:     "csv",
		Sinks:      []string{"csv", "redis"},
		StartedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Now:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		DurationMS: 1500,
		Users:      3,
		Rankings:   12,
	}
}

func TestPublisher_GoChannel(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NopLogger{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := pubSub.Subscribe(ctx, topic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	p := NewPublisher(pubSub, topic, zerolog.Nop())
	defer p.Close()

	if err := p.RunCompleted(ctx, sampleEvent()); err != nil {
		t.Fatalf("RunCompleted() error = %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		if got := msg.Metadata.Get("run_id"); got != "run-1" {
			t.Errorf("run_id metadata = %q", got)
		}
		var got RunCompleted
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		if got.Rankings != 12 || len(got.Sinks) != 2 || !got.Now.Equal(sampleEvent().Now) {
			t.Errorf("payload = %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestPublisher_Closed(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	p := NewPublisher(pubSub, topic, zerolog.Nop())

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := p.RunCompleted(context.Background(), sampleEvent()); !errors.Is(err, ErrClosed) {
		t.Errorf("RunCompleted() after Close() = %v, want ErrClosed", err)
	}
}

func TestNoop(t *testing.T) {
	var n Notifier = Noop{}
	if err := n.RunCompleted(context.Background(), sampleEvent()); err != nil {
		t.Errorf("Noop.RunCompleted() = %v", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("Noop.Close() = %v", err)
	}
}

func TestNATSPublisher(t *testing.T) {
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: server.RANDOM_PORT, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("start NATS server: %v", err)
	}
	go ns.Start()
	t.Cleanup(ns.Shutdown)
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	nc, err := natsgo.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()
	sub, err := nc.SubscribeSync(topic)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	p, err := NewNATSPublisher(config.NATSConfig{Enabled: true, URL: ns.ClientURL(), Topic: topic}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	defer p.Close()

	if err := p.RunCompleted(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("RunCompleted() error = %v", err)
	}

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("no message on %s: %v", topic, err)
	}
	var got RunCompleted
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.RunID != "run-1" {
		t.Errorf("RunID = %q", got.RunID)
	}
	if msg.Header.Get("run_id") != "run-1" {
		t.Errorf("run_id header = %q", msg.Header.Get("run_id"))
	}
}
