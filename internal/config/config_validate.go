// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package config

import (
	"fmt"

	"github.com/tomtom215/menurank/internal/logging"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateBackends(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRun() error {
	switch c.Run.Mode {
	case ModeOnce, ModeServe:
	default:
		return fmt.Errorf("MENURANK_MODE must be %q or %q, got %q", ModeOnce, ModeServe, c.Run.Mode)
	}
	if c.Run.Mode == ModeServe && c.Run.Interval <= 0 {
		return fmt.Errorf("MENURANK_INTERVAL must be positive in serve mode")
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("MENURANK_TIMEOUT must not be negative")
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("MENURANK_WORKERS must be at least 1, got %d", c.Run.Workers)
	}
	if _, _, err := c.Run.FixedNow(); err != nil {
		return fmt.Errorf("MENURANK_NOW must use %q: %w", NowLayout, err)
	}
	if c.Session.AbandonedCap <= 0 {
		return fmt.Errorf("SESSION_ABANDONED_CAP must be positive")
	}

	switch c.Run.Source {
	case BackendCSV, BackendDuckDB, BackendMySQL:
	default:
		return fmt.Errorf("MENURANK_SOURCE must be one of csv, duckdb, mysql, got %q", c.Run.Source)
	}
	if len(c.Run.Sinks) == 0 {
		return fmt.Errorf("MENURANK_SINKS must name at least one sink")
	}
	seen := make(map[string]bool, len(c.Run.Sinks))
	for _, s := range c.Run.Sinks {
		switch s {
		case BackendCSV, BackendDuckDB, BackendMySQL, BackendRedis:
		default:
			return fmt.Errorf("unknown sink %q in MENURANK_SINKS", s)
		}
		if seen[s] {
			return fmt.Errorf("sink %q listed twice in MENURANK_SINKS", s)
		}
		seen[s] = true
	}
	return nil
}

func (c *Config) validateBackends() error {
	if c.Run.Uses(BackendCSV) && c.Files.Dir == "" {
		return fmt.Errorf("DATA_DIR is required for the csv backend")
	}
	if c.Run.HasSink(BackendCSV) && c.Files.Output == "" {
		return fmt.Errorf("OUTPUT_FILE is required for the csv sink")
	}
	if (c.Run.Uses(BackendDuckDB) || c.Snapshot.Enabled) && c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required for the duckdb backend")
	}
	if c.Run.Uses(BackendMySQL) || c.Snapshot.Enabled {
		if err := c.validateMySQL(); err != nil {
			return err
		}
	}
	if c.Snapshot.Enabled {
		if c.Snapshot.Interval <= 0 {
			return fmt.Errorf("SNAPSHOT_INTERVAL must be positive")
		}
		if !c.Checkpoint.InMemory && c.Checkpoint.Path == "" {
			return fmt.Errorf("CHECKPOINT_PATH is required when snapshots are enabled")
		}
	}
	if c.Run.HasSink(BackendRedis) && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis sink")
	}
	if c.NATS.Enabled && (c.NATS.URL == "" || c.NATS.Topic == "") {
		return fmt.Errorf("NATS_URL and NATS_TOPIC are required when NATS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateMySQL() error {
	m := c.MySQL
	if m.Host == "" || m.User == "" || m.Database == "" {
		return fmt.Errorf("MYSQL_HOST, MYSQL_USER and MYSQL_DATABASE are required for the mysql backend")
	}
	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("MYSQL_PORT must be between 1 and 65535, got %d", m.Port)
	}
	if m.ChunkSize < 1 {
		return fmt.Errorf("MYSQL_CHUNK_SIZE must be positive, got %d", m.ChunkSize)
	}
	if m.BreakerMaxFailures == 0 {
		return fmt.Errorf("MYSQL_BREAKER_MAX_FAILURES must be positive")
	}
	if v := c.MySQLViews; v.Port < 0 || v.Port > 65535 {
		return fmt.Errorf("MYSQL_VIEWS_PORT must be between 1 and 65535, got %d", v.Port)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Run.Mode != ModeServe {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RunRateLimit < 0 {
		return fmt.Errorf("HTTP_RUN_RATE_LIMIT must not be negative, got %d", c.Server.RunRateLimit)
	}
	if c.Server.RunRateLimit > 0 && c.Server.RunRateWindow <= 0 {
		return fmt.Errorf("HTTP_RUN_RATE_WINDOW must be positive when a run rate limit is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
