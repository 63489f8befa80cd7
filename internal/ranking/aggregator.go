// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package ranking

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// Tables are the three reconstructed view tables of a run.
type Tables struct {
	ProductViews  views.UserViews
	ImageViews    views.UserViews
	CategoryViews views.UserViews
}

// Config controls the aggregator.
type Config struct {
	// Workers is the number of users scored concurrently. 1 scores sequentially.
	Workers int
}

// DefaultConfig returns a sequential configuration.
func DefaultConfig() Config {
	return Config{Workers: 1}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Stats summarizes one aggregation.
type Stats struct {
	Users             int
	Rankings          int
	AllergyExclusions int
	Boosted           int
	Preferred         int
}

func (s *Stats) merge(o Stats) {
	s.Users += o.Users
	s.Rankings += o.Rankings
	s.AllergyExclusions += o.AllergyExclusions
	s.Boosted += o.Boosted
	s.Preferred += o.Preferred
}

// Aggregator turns view tables and the reference graph into rankings.
type Aggregator struct {
	cfg    Config
	logger zerolog.Logger
}

// NewAggregator creates an aggregator.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewAggregator(cfg Config, logger zerolog.Logger) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking config: %w", err)
	}
	return &Aggregator{
		cfg:    cfg,
		logger: logger.With().Str("component", "ranking").Logger(),
	}, nil
}

// Rank emits one ranking per (user, viewed scope) of the product-view table,
// allergy exclusions included. Output is ordered by device, user id,
// listing and category so that identical inputs give identical batches.
// Users are independent; with Workers > 1 they are scored in parallel and
// the per-user results concatenated.
func (a *Aggregator) Rank(ctx context.Context, t Tables, g *refgraph.Graph) ([]Ranking, Stats, error) {
	users := make([]views.User, 0, len(t.ProductViews))
	for u := range t.ProductViews {
		users = append(users, u)
	}
	slices.SortFunc(users, compareUsers)

	results := make([][]Ranking, len(users))
	perUser := make([]Stats, len(users))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.cfg.Workers)
	for i, u := range users {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i], perUser[i] = rankUser(u, t, g)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, Stats{}, fmt.Errorf("rank users: %w", err)
	}

	var stats Stats
	total := 0
	for i := range results {
		stats.merge(perUser[i])
		total += len(results[i])
	}
	out := make([]Ranking, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}

	a.logger.Debug().
		Int("users", stats.Users).
		Int("rankings", stats.Rankings).
		Int("allergy_exclusions", stats.AllergyExclusions).
		Int("boosted", stats.Boosted).
		Msg("Aggregation complete")

	return out, stats, nil
}

// rankUser scores every scope one user viewed.
func rankUser(u views.User, t Tables, g *refgraph.Graph) ([]Ranking, Stats) {
	var info refgraph.UserInfo
	if u.ID.Resolved {
		info = g.UserInfo(u.ID.ID)
	}

	products := t.ProductViews.Of(u)
	scorer := newUserScorer(g, info, products, t.ImageViews.Of(u), t.CategoryViews.Of(u))

	scopes := make([]views.Scope, 0, len(products))
	for s := range products {
		if s.HasProduct {
			scopes = append(scopes, s)
		}
	}
	slices.SortFunc(scopes, func(a, b views.Scope) int {
		return cmp.Or(cmp.Compare(a.ProductID, b.ProductID), cmp.Compare(a.CategoryID, b.CategoryID))
	})

	stats := Stats{Users: 1}
	out := make([]Ranking, 0, len(scopes))
	for _, s := range scopes {
		sig := scorer.evaluate(s)
		switch {
		case sig.UserFactor == 0:
			stats.AllergyExclusions++
		case sig.UserFactor == preferenceFactor:
			stats.Preferred++
		}
		if sig.RankBooster > 0 {
			stats.Boosted++
		}
		out = append(out, Ranking{User: u, ListingID: s.ProductID, CategoryID: s.CategoryID, Score: sig.Score})
	}
	stats.Rankings = len(out)
	return out, stats
}

func compareUsers(a, b views.User) int {
	if c := strings.Compare(a.Device, b.Device); c != 0 {
		return c
	}
	// Anonymous sorts before resolved.
	if a.ID.Resolved != b.ID.Resolved {
		if a.ID.Resolved {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.ID.ID, b.ID.ID)
}
