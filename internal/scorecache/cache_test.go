// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package scorecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/ranking"
	"github.com/tomtom215/menurank/internal/views"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := New(context.Background(), config.RedisConfig{
		Addr:      srv.Addr(),
		KeyPrefix: "test:scores",
		TTL:       ttl,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

var (
	alice = views.User{Device: "aa:01", ID: views.ResolvedID(7)}
	guest = views.User{Device: "aa:02", ID: views.AnonymousID()}
)

func TestKey(t *testing.T) {
	c := NewWithClient(nil, config.RedisConfig{KeyPrefix: "p"}, zerolog.Nop())
	tests := []struct {
		user views.User
		want string
	}{
		{alice, "p:aa:01:7"},
		{guest, "p:aa:02:anon"},
		{views.User{Device: "aa:01", ID: views.ResolvedID(0)}, "p:aa:01:0"},
	}
	for _, tt := range tests {
		if got := c.Key(tt.user); got != tt.want {
			t.Errorf("Key(%v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}

func TestWriteRankings(t *testing.T) {
	c, srv := newTestCache(t, time.Hour)
	ctx := context.Background()

	err := c.WriteRankings(ctx, []ranking.Ranking{
		{User: alice, ListingID: 10, CategoryID: 1, Score: 40},
		{User: alice, ListingID: 10, CategoryID: 2, Score: 90},
		{User: alice, ListingID: 11, CategoryID: 1, Score: -5},
		{User: guest, ListingID: 12, CategoryID: 1, Score: 3},
	})
	if err != nil {
		t.Fatalf("WriteRankings() error = %v", err)
	}

	got, err := c.Scores(ctx, alice)
	if err != nil {
		t.Fatalf("Scores() error = %v", err)
	}
	if len(got) != 2 || got[10] != 90 || got[11] != -5 {
		t.Errorf("Scores(alice) = %v, want {10:90 11:-5}", got)
	}
	if ttl := srv.TTL("test:scores:aa:01:7"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}
	if ok, _ := srv.SIsMember("test:scores:index", "test:scores:aa:02:anon"); !ok {
		t.Error("anonymous user missing from index")
	}
}

func TestWriteRankings_ReplacesPreviousRun(t *testing.T) {
	c, srv := newTestCache(t, 0)
	ctx := context.Background()

	first := []ranking.Ranking{
		{User: alice, ListingID: 10, Score: 1},
		{User: alice, ListingID: 11, Score: 2},
		{User: guest, ListingID: 12, Score: 3},
	}
	if err := c.WriteRankings(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteRankings(ctx, []ranking.Ranking{{User: alice, ListingID: 11, Score: 5}}); err != nil {
		t.Fatal(err)
	}

	got, err := c.Scores(ctx, alice)
	if err != nil || len(got) != 1 || got[11] != 5 {
		t.Errorf("Scores(alice) = %v, %v, want only {11:5}", got, err)
	}
	if _, err := c.Scores(ctx, guest); !errors.Is(err, ErrNotFound) {
		t.Errorf("Scores(guest) error = %v, want ErrNotFound", err)
	}
	if srv.Exists("test:scores:aa:02:anon") {
		t.Error("stale user hash not evicted")
	}
	if srv.TTL("test:scores:aa:01:7") != 0 {
		t.Error("TTL set although disabled")
	}
}

func TestWriteRankings_Empty(t *testing.T) {
	c, srv := newTestCache(t, 0)
	ctx := context.Background()

	if err := c.WriteRankings(ctx, []ranking.Ranking{{User: alice, ListingID: 1, Score: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteRankings(ctx, nil); err != nil {
		t.Fatalf("WriteRankings(nil) error = %v", err)
	}
	if srv.Exists("test:scores:aa:01:7") {
		t.Error("empty run should evict every user")
	}
}

func TestNew_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	if _, err := New(context.Background(), config.RedisConfig{Addr: addr}, zerolog.Nop()); err == nil {
		t.Error("New() should fail when redis is down")
	}
}
