// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Run modes.
const (
	ModeOnce  = "once"
	ModeServe = "serve"
)

// Source and sink names.
const (
	BackendCSV    = "csv"
	BackendDuckDB = "duckdb"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// NowLayout is the layout of run.now, matching the interaction logs.
const NowLayout = "2006-01-02 15:04:05"

// Config holds all application configuration.
type Config struct {
	Run        RunConfig        `koanf:"run"`
	Session    SessionConfig    `koanf:"session"`
	Files      FilesConfig      `koanf:"files"`
	Database   DatabaseConfig   `koanf:"database"`
	MySQL      MySQLConfig      `koanf:"mysql"`
	MySQLViews MySQLViewsConfig `koanf:"mysql_views"`
	Snapshot   SnapshotConfig   `koanf:"snapshot"`
	Checkpoint CheckpointConfig `koanf:"checkpoint"`
	Redis      RedisConfig      `koanf:"redis"`
	NATS       NATSConfig       `koanf:"nats"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// RunConfig controls how and where a ranking run executes.
type RunConfig struct {
	Mode         string        `koanf:"mode"`           // once or serve
	Interval     time.Duration `koanf:"interval"`       // serve mode: time between runs
	RunOnStartup bool          `koanf:"run_on_startup"` // serve mode: run immediately on start
	Timeout      time.Duration `koanf:"timeout"`        // upper bound for one run, 0 = none
	Now          string        `koanf:"now"`            // pins the run clock, NowLayout in UTC
	Workers      int           `koanf:"workers"`        // users scored concurrently
	Source       string        `koanf:"source"`         // csv, duckdb or mysql
	Sinks        []string      `koanf:"sinks"`          // any of csv, duckdb, mysql, redis
}

// FixedNow parses run.now. ok is false when the clock is not pinned.
func (r RunConfig) FixedNow() (now time.Time, ok bool, err error) {
	if r.Now == "" {
		return time.Time{}, false, nil
	}
	now, err = time.ParseInLocation(NowLayout, r.Now, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("run.now: %w", err)
	}
	return now, true, nil
}

// HasSink reports whether name is among the configured sinks.
func (r RunConfig) HasSink(name string) bool {
	for _, s := range r.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// Uses reports whether the backend is the source or one of the sinks.
func (r RunConfig) Uses(backend string) bool {
	return r.Source == backend || r.HasSink(backend)
}

// SessionConfig tunes session reconstruction.
type SessionConfig struct {
	AbandonedCap time.Duration `koanf:"abandoned_cap"`
}

// FilesConfig locates the flat-file snapshots.
type FilesConfig struct {
	Dir    string `koanf:"dir"`
	Output string `koanf:"output"`
}

// DatabaseConfig holds the DuckDB snapshot store settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = NumCPU
}

// MySQLConfig holds the relational store connection.
type MySQLConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	User               string        `koanf:"user"`
	Password           string        `koanf:"password"`
	Database           string        `koanf:"database"`
	MaxOpenConns       int           `koanf:"max_open_conns"`
	QueryTimeout       time.Duration `koanf:"query_timeout"`
	ChunkSize          int           `koanf:"chunk_size"`
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// Addr returns host:port.
func (m MySQLConfig) Addr() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// MySQLViewsConfig locates the statistics database holding the view logs.
// Empty fields fall back to the mysql section; with every field empty the
// view logs are read over the mysql connection.
type MySQLViewsConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

func (v MySQLViewsConfig) set() bool {
	return v.Host != "" || v.Port != 0 || v.User != "" || v.Password != "" || v.Database != ""
}

// ViewsMySQL returns the connection settings for the view logs. separate is
// false when they resolve to the mysql connection itself. Pool, timeout and
// breaker settings always come from the mysql section.
func (c *Config) ViewsMySQL() (cfg MySQLConfig, separate bool) {
	cfg = c.MySQL
	v := c.MySQLViews
	if !v.set() {
		return cfg, false
	}
	if v.Host != "" {
		cfg.Host = v.Host
	}
	if v.Port != 0 {
		cfg.Port = v.Port
	}
	if v.User != "" {
		cfg.User = v.User
		cfg.Password = v.Password
	} else if v.Password != "" {
		cfg.Password = v.Password
	}
	if v.Database != "" {
		cfg.Database = v.Database
	}
	same := cfg.Addr() == c.MySQL.Addr() && cfg.User == c.MySQL.User &&
		cfg.Password == c.MySQL.Password && cfg.Database == c.MySQL.Database
	return cfg, !same
}

// SnapshotConfig controls mirroring the relational store into DuckDB.
type SnapshotConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// CheckpointConfig locates the badger store of extraction checkpoints.
type CheckpointConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// RedisConfig holds the score cache connection.
type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	TTL       time.Duration `koanf:"ttl"`
}

// NATSConfig controls run notifications.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	Topic   string `koanf:"topic"`
}

// ServerConfig holds the operator HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins is empty by default, which disables cross-origin access.
	CORSOrigins []string `koanf:"cors_origins"`

	// RunRateLimit bounds manual run triggers per client IP and window.
	// Zero disables the limit.
	RunRateLimit  int           `koanf:"run_rate_limit"`
	RunRateWindow time.Duration `koanf:"run_rate_window"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
