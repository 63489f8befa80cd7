// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package mysql

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/ranking"
	"github.com/tomtom215/menurank/internal/views"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.MySQLConfig{
		Host: "db.internal", Port: 3307, User: "ranker", Password: "p@ss", Database: "menu",
	})

	for _, want := range []string{"ranker:p@ss@tcp(db.internal:3307)/menu", "parseTime=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN() = %q, missing %q", dsn, want)
		}
	}
}

func TestViewQuery(t *testing.T) {
	tests := []struct {
		kind        views.StreamKind
		wantProduct bool
	}{
		{views.StreamProductViews, true},
		{views.StreamProductImageViews, true},
		{views.StreamCategoryViews, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			q := viewQuery(tt.kind)
			if got := strings.Contains(q, "product_id"); got != tt.wantProduct {
				t.Errorf("query %q: product_id present = %v, want %v", q, got, tt.wantProduct)
			}
			if !strings.Contains(q, "FROM "+string(tt.kind)+" WHERE id > ?") {
				t.Errorf("query %q does not page by id", q)
			}
		})
	}
}

func TestViewRowRecord(t *testing.T) {
	pid := int64(10)
	row := viewRow{
		ID: 5, Action: "OPEN", CategoryID: 3, ProductID: &pid, MacAddress: "aa:bb",
		DateInsert: time.Date(2024, 5, 1, 14, 0, 17, 0, time.FixedZone("CEST", 2*3600)),
	}
	rec := row.record()
	if rec.Timestamp != "2024-05-01 12:00:17" {
		t.Errorf("Timestamp = %q, want UTC log layout", rec.Timestamp)
	}
	if rec.UserID != nil || *rec.ProductID != 10 || rec.Device != "aa:bb" {
		t.Errorf("record = %+v", rec)
	}
	if _, err := views.ParseRecord(views.StreamProductViews, &rec); err != nil {
		t.Errorf("extracted record does not parse: %v", err)
	}
}

func TestFlagsRow(t *testing.T) {
	f := (&flagsRow{Spicy: 1, Casherut: 2}).flags()
	if !f.Spicy || !f.Kosher || f.Vegan {
		t.Errorf("flags = %+v", f)
	}
}

func TestToRows(t *testing.T) {
	rows := toRows([]ranking.Ranking{
		{User: views.User{Device: "aa"}, ListingID: 10, Score: 69},
		{User: views.User{Device: "bb", ID: views.ResolvedID(42)}, ListingID: 11, Score: math.MaxInt64},
	})

	if rows[0].IDUser != nil || *rows[0].MacAddress != "aa" || rows[0].IDProduct != 10 || rows[0].Rank != 69 {
		t.Errorf("anonymous row = %+v", rows[0])
	}
	if rows[1].IDUser == nil || *rows[1].IDUser != 42 {
		t.Errorf("IDUser = %v, want 42", rows[1].IDUser)
	}
	if rows[1].Rank != math.MaxInt32 {
		t.Errorf("Rank = %d, want saturation at MaxInt32", rows[1].Rank)
	}
	if (RankingRow{}).TableName() != "users_product_ai" {
		t.Error("unexpected table name")
	}
}

func TestSaturateInt32(t *testing.T) {
	tests := []struct {
		in   int64
		want int32
	}{
		{0, 0},
		{18000, 18000},
		{math.MaxInt32 + 1, math.MaxInt32},
		{math.MinInt32 - 1, math.MinInt32},
	}
	for _, tt := range tests {
		if got := saturateInt32(tt.in); got != tt.want {
			t.Errorf("saturateInt32(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// unreachableClient points gorm at a closed port without connecting eagerly.
func unreachableClient(t *testing.T, failures uint32) *Client {
	t.Helper()
	cfg := config.MySQLConfig{
		Host: "127.0.0.1", Port: 1, User: "u", Database: "d",
		QueryTimeout:       2 * time.Second,
		BreakerMaxFailures: failures,
		BreakerTimeout:     time.Hour,
	}
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{DSN: DSN(cfg), SkipInitializeWithVersion: true}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	return NewClient(db, cfg, zerolog.Nop())
}

func TestBreakerTrips(t *testing.T) {
	c := unreachableClient(t, 2)
	ex := NewExtractor(c, c)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := ex.ViewRecords(ctx, views.StreamProductViews)
		if err == nil {
			t.Fatal("expected connection error")
		}
		if errors.Is(err, ErrUnavailable) {
			t.Fatalf("attempt %d: breaker open too early", i)
		}
	}

	_, err := ex.ViewRecords(ctx, views.StreamProductViews)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if c.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q, want open", c.BreakerState())
	}

	// The store shares the breaker.
	err = NewRankingStore(c, 0).WriteRankings(ctx, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("store error = %v, want ErrUnavailable", err)
	}
}

func TestExtractor_SeparateConnections(t *testing.T) {
	stats := unreachableClient(t, 1)
	ops := unreachableClient(t, 1)
	ex := NewExtractor(stats, ops)
	ctx := context.Background()

	if _, err := ex.ViewRecordsAfter(ctx, views.StreamCategoryViews, 0); err == nil {
		t.Fatal("expected connection error")
	}
	if stats.BreakerState() != "open" || ops.BreakerState() != "closed" {
		t.Fatalf("after view read: stats=%s ops=%s, want open/closed", stats.BreakerState(), ops.BreakerState())
	}

	_, err := ex.Reference(ctx)
	if err == nil || errors.Is(err, ErrUnavailable) {
		t.Fatalf("Reference() error = %v, want a connection error from the operational client", err)
	}
	if ops.BreakerState() != "open" {
		t.Errorf("ops breaker = %s, want open", ops.BreakerState())
	}
}

func TestViewRecords_UnknownStream(t *testing.T) {
	c := unreachableClient(t, 3)
	ex := NewExtractor(c, c)
	if _, err := ex.ViewRecords(context.Background(), "clicks"); err == nil {
		t.Error("expected error for unknown stream")
	}
}

func TestNewRankingStore_DefaultChunk(t *testing.T) {
	s := NewRankingStore(unreachableClient(t, 3), 0)
	if s.chunkSize != DefaultChunkSize || s.Name() != "mysql" {
		t.Errorf("store = %+v", s)
	}
}
