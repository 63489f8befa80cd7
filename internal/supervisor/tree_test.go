// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// countingService runs until canceled, failing the first fails starts.
type countingService struct {
	name   string
	fails  int32
	starts atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	if n := s.starts.Add(1); n <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTree_Defaults(t *testing.T) {
	tree := NewTree(quietLogger(), TreeConfig{})
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults", tree.config)
	}

	custom := TreeConfig{FailureThreshold: 2, FailureDecay: 1, FailureBackoff: time.Second, ShutdownTimeout: time.Second}
	if got := NewTree(quietLogger(), custom).config; got != custom {
		t.Errorf("config = %+v, want %+v", got, custom)
	}
}

func TestTree_StartsEveryLayer(t *testing.T) {
	tree := NewTree(quietLogger(), TreeConfig{FailureBackoff: 10 * time.Millisecond, ShutdownTimeout: time.Second})

	data := &countingService{name: "data"}
	rank := &countingService{name: "ranking"}
	api := &countingService{name: "api"}
	tree.AddDataService(data)
	tree.AddRankingService(rank)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for data.starts.Load() == 0 || rank.starts.Load() == 0 || api.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("not every layer started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree exited with %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestTree_RestartsFailedService(t *testing.T) {
	tree := NewTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	flaky := &countingService{name: "flaky", fails: 2}
	steady := &countingService{name: "steady"}
	tree.AddDataService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := tree.ServeBackground(ctx)

	for flaky.starts.Load() < 3 {
		select {
		case <-ctx.Done():
			t.Fatalf("flaky service started %d times, want 3", flaky.starts.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if steady.starts.Load() != 1 {
		t.Errorf("steady service restarted: %d starts", steady.starts.Load())
	}
	cancel()
	<-done
}
