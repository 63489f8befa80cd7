// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level zerolog.Level
		slog  slog.Level
		want  bool
	}{
		{"debug logger accepts debug", zerolog.DebugLevel, slog.LevelDebug, true},
		{"info logger drops debug", zerolog.InfoLevel, slog.LevelDebug, false},
		{"info logger accepts warn", zerolog.InfoLevel, slog.LevelWarn, true},
		{"error logger drops warn", zerolog.ErrorLevel, slog.LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewSlogHandler(zerolog.New(nil).Level(tt.level))
			if got := h.Enabled(context.Background(), tt.slog); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.slog, got, tt.want)
			}
		})
	}
}

func TestSlogHandler_Handle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(zerolog.New(&buf)))

	logger.Warn("service restarted",
		"service", "ranking",
		"attempt", 3,
		"backoff", 2*time.Second,
		"healthy", false,
	)

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"service":"ranking"`,
		`"attempt":3`,
		`"healthy":false`,
		"service restarted",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(zerolog.New(&buf))).
		With("supervisor", "root").
		WithGroup("event")

	logger.Info("failure", "kind", "panic", slog.Group("detail", "restarts", 2))

	out := buf.String()
	for _, want := range []string{
		`"supervisor":"root"`,
		`"event.kind":"panic"`,
		`"event.detail.restarts":2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandler_GroupScopesLaterAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(zerolog.New(&buf))).
		With("supervisor", "root").
		WithGroup("event").
		With("service", "http-server").
		WithGroup("restart")

	logger.Warn("backoff", "attempt", 4)

	out := buf.String()
	for _, want := range []string{
		`"supervisor":"root"`,
		`"event.service":"http-server"`,
		`"event.restart.attempt":4`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	for _, unwanted := range []string{`"event.supervisor"`, `"event.restart.service"`} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output has %s: %s", unwanted, out)
		}
	}
}

func TestZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := zerologLevel(tt.in); got != tt.want {
			t.Errorf("zerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
