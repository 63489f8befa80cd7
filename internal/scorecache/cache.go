// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package scorecache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/metrics"
	"github.com/tomtom215/menurank/internal/ranking"
	"github.com/tomtom215/menurank/internal/views"
)

const (
	anonymousSegment = "anon"
	indexSuffix      = "index"

	// usersPerPipeline bounds the commands queued before a round trip.
	usersPerPipeline = 500
)

// ErrNotFound is returned when no scores are cached for a user.
var ErrNotFound = errors.New("no cached scores")

// Cache stores the latest scores of every user as one Redis hash per user,
// field listing id, value score.
type Cache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// New connects to Redis and verifies the connection.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func New(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wraps an existing client.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewWithClient(client redis.UniversalClient, cfg config.RedisConfig, logger zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		logger: logger.With().Str("component", "scorecache").Logger(),
	}
}

// Name identifies the sink.
func (c *Cache) Name() string { return config.BackendRedis }

// Key returns the hash key of a user.
func (c *Cache) Key(u views.User) string {
	id := anonymousSegment
	if u.ID.Resolved {
		id = strconv.FormatInt(u.ID.ID, 10)
	}
	return c.prefix + ":" + u.Device + ":" + id
}

func (c *Cache) indexKey() string {
	return c.prefix + ":" + indexSuffix
}

// WriteRankings replaces the cached scores with rankings. Users missing
// from rankings are evicted. A listing ranked under several categories
// keeps its highest score.
func (c *Cache) WriteRankings(ctx context.Context, rankings []ranking.Ranking) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("redis", "write", c.prefix, time.Since(start), err) }()

	byKey := make(map[string]map[string]int64)
	var order []string
	for i := range rankings {
		r := &rankings[i]
		key := c.Key(r.User)
		fields, ok := byKey[key]
		if !ok {
			fields = make(map[string]int64)
			byKey[key] = fields
			order = append(order, key)
		}
		field := strconv.FormatInt(r.ListingID, 10)
		if cur, seen := fields[field]; !seen || r.Score > cur {
			fields[field] = r.Score
		}
	}

	previous, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("read cache index: %w", err)
	}

	for lo := 0; lo < len(order); lo += usersPerPipeline {
		hi := min(lo+usersPerPipeline, len(order))
		if err := c.writeBatch(ctx, order[lo:hi], byKey); err != nil {
			return err
		}
	}

	var stale []string
	for _, key := range previous {
		if _, ok := byKey[key]; !ok {
			stale = append(stale, key)
		}
	}
	if len(stale) > 0 {
		pipe := c.client.Pipeline()
		pipe.Del(ctx, stale...)
		members := make([]any, len(stale))
		for i, k := range stale {
			members[i] = k
		}
		pipe.SRem(ctx, c.indexKey(), members...)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("evict stale users: %w", err)
		}
	}

	c.logger.Debug().
		Int("users", len(order)).
		Int("evicted", len(stale)).
		Msg("Score cache updated")
	return nil
}

func (c *Cache) writeBatch(ctx context.Context, keys []string, byKey map[string]map[string]int64) error {
	pipe := c.client.Pipeline()
	members := make([]any, len(keys))
	for i, key := range keys {
		values := make(map[string]any, len(byKey[key]))
		for field, score := range byKey[key] {
			values[field] = score
		}
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		members[i] = key
	}
	pipe.SAdd(ctx, c.indexKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write %d users: %w", len(keys), err)
	}
	return nil
}

// Scores returns the cached listing scores of a user.
func (c *Cache) Scores(ctx context.Context, u views.User) (map[int64]int64, error) {
	raw, err := c.client.HGetAll(ctx, c.Key(u)).Result()
	if err != nil {
		return nil, fmt.Errorf("read scores of %s: %w", u, err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	out := make(map[int64]int64, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad listing field %q in %s: %w", field, c.Key(u), err)
		}
		score, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad score for listing %d in %s: %w", id, c.Key(u), err)
		}
		out[id] = score
	}
	return out, nil
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
