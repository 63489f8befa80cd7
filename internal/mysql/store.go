// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package mysql

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/tomtom215/menurank/internal/ranking"
)

// TableRankings is the serving table read by the menu frontend.
const TableRankings = "users_product_ai"

// DefaultChunkSize bounds one INSERT statement.
const DefaultChunkSize = 10000

// RankingStore replaces the contents of users_product_ai.
type RankingStore struct {
	client    *Client
	chunkSize int
}

// NewRankingStore returns a sink over c. chunkSize <= 0 uses DefaultChunkSize.
func NewRankingStore(c *Client, chunkSize int) *RankingStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &RankingStore{client: c, chunkSize: chunkSize}
}

// Name identifies the sink in logs and metrics.
func (s *RankingStore) Name() string { return "mysql" }

// WriteRankings deletes every row and inserts the batch in chunks, all in
// one transaction so readers never see an empty table.
func (s *RankingStore) WriteRankings(ctx context.Context, rankings []ranking.Ranking) error {
	rows := toRows(rankings)

	err := s.client.do(ctx, "replace", TableRankings, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM " + TableRankings).Error; err != nil {
				return fmt.Errorf("clear %s: %w", TableRankings, err)
			}
			if len(rows) == 0 {
				return nil
			}
			if err := tx.CreateInBatches(rows, s.chunkSize).Error; err != nil {
				return fmt.Errorf("insert %s: %w", TableRankings, err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.client.logger.Info().Int("rankings", len(rows)).Int("chunk_size", s.chunkSize).Msg("Serving table replaced")
	return nil
}

func toRows(rankings []ranking.Ranking) []RankingRow {
	rows := make([]RankingRow, len(rankings))
	for i, r := range rankings {
		device := r.User.Device
		rows[i] = RankingRow{
			MacAddress: &device,
			IDProduct:  r.ListingID,
			Rank:       saturateInt32(r.Score),
		}
		if r.User.ID.Resolved {
			id := r.User.ID.ID
			rows[i].IDUser = &id
		}
	}
	return rows
}

// saturateInt32 clamps scores to the INT rank column.
func saturateInt32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}
