// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/menurank/config.yaml",
	"/etc/menurank/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Mode:         ModeOnce,
			Interval:     time.Hour,
			RunOnStartup: true,
			Timeout:      30 * time.Minute,
			Workers:      1,
			Source:       BackendCSV,
			Sinks:        []string{BackendCSV},
		},
		Session: SessionConfig{
			AbandonedCap: 30 * time.Second,
		},
		Files: FilesConfig{
			Dir:    "data",
			Output: "data/out.csv",
		},
		Database: DatabaseConfig{
			Path:      "/data/menurank.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		MySQL: MySQLConfig{
			Host:               "127.0.0.1",
			Port:               3306,
			User:               "menurank",
			Database:           "menu",
			MaxOpenConns:       4,
			QueryTimeout:       5 * time.Minute,
			ChunkSize:          10000,
			BreakerMaxFailures: 3,
			BreakerTimeout:     time.Minute,
		},
		Snapshot: SnapshotConfig{
			Enabled:  false,
			Interval: 15 * time.Minute,
		},
		Checkpoint: CheckpointConfig{
			Path: "/data/checkpoints",
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "menurank:scores",
			TTL:       0,
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Topic:   "menurank.rankings.completed",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			RunRateLimit:    6,
			RunRateWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the optional config file and environment
// variables (highest priority), then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are read from env vars as comma-separated lists.
var sliceConfigPaths = []string{
	"run.sinks",
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0, 4)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to config paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"menurank_mode":           "run.mode",
	"menurank_interval":       "run.interval",
	"menurank_run_on_startup": "run.run_on_startup",
	"menurank_timeout":        "run.timeout",
	"menurank_now":            "run.now",
	"menurank_workers":        "run.workers",
	"menurank_source":         "run.source",
	"menurank_sinks":          "run.sinks",

	"session_abandoned_cap": "session.abandoned_cap",

	"data_dir":    "files.dir",
	"output_file": "files.output",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"mysql_host":                 "mysql.host",
	"mysql_port":                 "mysql.port",
	"mysql_user":                 "mysql.user",
	"mysql_password":             "mysql.password",
	"mysql_database":             "mysql.database",
	"mysql_max_open_conns":       "mysql.max_open_conns",
	"mysql_query_timeout":        "mysql.query_timeout",
	"mysql_chunk_size":           "mysql.chunk_size",
	"mysql_breaker_max_failures": "mysql.breaker_max_failures",
	"mysql_breaker_timeout":      "mysql.breaker_timeout",

	"mysql_views_host":     "mysql_views.host",
	"mysql_views_port":     "mysql_views.port",
	"mysql_views_user":     "mysql_views.user",
	"mysql_views_password": "mysql_views.password",
	"mysql_views_database": "mysql_views.database",

	"snapshot_enabled":  "snapshot.enabled",
	"snapshot_interval": "snapshot.interval",

	"checkpoint_path":      "checkpoint.path",
	"checkpoint_in_memory": "checkpoint.in_memory",

	"redis_addr":       "redis.addr",
	"redis_password":   "redis.password",
	"redis_db":         "redis.db",
	"redis_key_prefix": "redis.key_prefix",
	"redis_ttl":        "redis.ttl",

	"nats_enabled": "nats.enabled",
	"nats_url":     "nats.url",
	"nats_topic":   "nats.topic",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_cors_origins":     "server.cors_origins",
	"http_run_rate_limit":   "server.run_rate_limit",
	"http_run_rate_window":  "server.run_rate_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps e.g. MYSQL_HOST to mysql.host.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
