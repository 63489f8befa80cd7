// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	drivermysql "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/metrics"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("mysql unavailable")

// Client is a gorm connection guarded by a circuit breaker.
type Client struct {
	db      *gorm.DB
	cb      *gobreaker.CircuitBreaker[any]
	cfg     config.MySQLConfig
	logger  zerolog.Logger
	ownsDB  bool
	timeout time.Duration
}

// DSN renders the driver connection string. Times are read as UTC.
func DSN(cfg config.MySQLConfig) string {
	c := drivermysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = cfg.Addr()
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func Open(ctx context.Context, cfg config.MySQLConfig, logger zerolog.Logger) (*Client, error) {
	gormLog := gormlogger.New(
		&logger,
		gormlogger.Config{
			SlowThreshold:             5 * time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{DSN: DSN(cfg)}), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL at %s: %w", cfg.Addr(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MySQL pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping MySQL at %s: %w", cfg.Addr(), err)
	}

	c := NewClient(db, cfg, logger)
	c.ownsDB = true
	return c, nil
}

// NewClient wraps an existing gorm handle.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewClient(db *gorm.DB, cfg config.MySQLConfig, logger zerolog.Logger) *Client {
	log := logger.With().Str("component", "mysql").Str("addr", cfg.Addr()).Str("database", cfg.Database).Logger()
	return &Client{
		db:      db,
		cb:      newBreaker("mysql:"+cfg.Database, cfg, log),
		cfg:     cfg,
		logger:  log,
		timeout: cfg.QueryTimeout,
	}
}

// DB returns the gorm handle.
func (c *Client) DB() *gorm.DB { return c.db }

// BreakerState reports the circuit breaker state for health checks.
func (c *Client) BreakerState() string { return c.cb.State().String() }

// Ping checks the connection without going through the breaker.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool if Open created it.
func (c *Client) Close() error {
	if !c.ownsDB {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// do runs fn through the breaker with the configured query timeout and
// records the query metric under table.
func (c *Client) do(ctx context.Context, operation, table string, fn func(tx *gorm.DB) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		return nil, fn(c.db.WithContext(ctx))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	metrics.RecordDBQuery("mysql", operation, table, time.Since(start), err)
	return err
}

//nolint:gocritic // logger passed by value following zerolog conventions
func newBreaker(name string, cfg config.MySQLConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[any] {
	threshold := cfg.BreakerMaxFailures
	if threshold == 0 {
		threshold = 3
	}
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Cancellation is the caller's doing, not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})
}
