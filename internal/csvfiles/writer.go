// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package csvfiles

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/ranking"
)

// OutputHeader is the column layout of a rankings file.
var OutputHeader = []string{"mac_address", "user_id", "product_id", "rank"}

// Writer replaces a rankings CSV file on every write.
type Writer struct {
	path   string
	logger zerolog.Logger
}

// NewWriter returns a sink writing to path.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewWriter(path string, logger zerolog.Logger) *Writer {
	return &Writer{
		path:   path,
		logger: logger.With().Str("component", "csvfiles").Str("output", path).Logger(),
	}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "csv" }

// WriteRankings writes to a temporary file next to the target and renames it
// into place, so readers never observe a partial file.
func (w *Writer) WriteRankings(ctx context.Context, rankings []ranking.Ranking) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".rankings-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := Encode(ctx, tmp, rankings); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("replace %s: %w", w.path, err)
	}
	committed = true

	w.logger.Info().Int("rankings", len(rankings)).Msg("Rankings file written")
	return nil
}

// Encode writes rankings with OutputHeader. Anonymous users have an empty
// user_id cell.
func Encode(ctx context.Context, out io.Writer, rankings []ranking.Ranking) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(OutputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(OutputHeader))
	for i, r := range rankings {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row[0] = r.User.Device
		row[1] = ""
		if r.User.ID.Resolved {
			row[1] = strconv.FormatInt(r.User.ID.ID, 10)
		}
		row[2] = strconv.FormatInt(r.ListingID, 10)
		row[3] = strconv.FormatInt(r.Score, 10)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write ranking %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush rankings: %w", err)
	}
	return nil
}
