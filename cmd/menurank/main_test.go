// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/menurank/internal/config"
)

func TestExitCode(t *testing.T) {
	interrupted := fmt.Errorf("load product_views: %w", context.Canceled)

	tests := []struct {
		name string
		mode string
		err  error
		want int
	}{
		{"once success", config.ModeOnce, nil, 0},
		{"once failure", config.ModeOnce, errors.New("sink failed"), 1},
		{"once interrupted", config.ModeOnce, interrupted, 1},
		{"serve stopped by signal", config.ModeServe, context.Canceled, 0},
		{"serve clean exit", config.ModeServe, nil, 0},
		{"serve failure", config.ModeServe, errors.New("listen tcp: address in use"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.mode, tt.err); got != tt.want {
				t.Errorf("exitCode(%q, %v) = %d, want %d", tt.mode, tt.err, got, tt.want)
			}
		})
	}
}
