// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tomtom215/menurank/internal/config"
)

const (
	DefaultMySQLImage = "mysql:8.4"
	mysqlPort         = "3306/tcp"
	testDatabase      = "menu"
	testUser          = "menurank"
	testPassword      = "menurank-test"
)

// MenuSchema creates the platform tables menurank reads and writes.
const MenuSchema = `
CREATE TABLE product_views (
  id BIGINT PRIMARY KEY AUTO_INCREMENT,
  action VARCHAR(8) NOT NULL,
  category_id BIGINT NOT NULL,
  product_id BIGINT NOT NULL,
  mac_address VARCHAR(64) NOT NULL,
  user_id BIGINT NULL,
  date_insert DATETIME NOT NULL
);
CREATE TABLE product_image_views LIKE product_views;
CREATE TABLE category_views (
  id BIGINT PRIMARY KEY AUTO_INCREMENT,
  action VARCHAR(8) NOT NULL,
  category_id BIGINT NOT NULL,
  mac_address VARCHAR(64) NOT NULL,
  user_id BIGINT NULL,
  date_insert DATETIME NOT NULL
);
CREATE TABLE product_restaurant (
  id BIGINT PRIMARY KEY, id_product BIGINT NULL, highlight TINYINT NOT NULL DEFAULT 0, deleted TINYINT NOT NULL DEFAULT 0
);
CREATE TABLE product_detail (
  id BIGINT PRIMARY KEY,
  alcohol TINYINT NOT NULL DEFAULT 0, gluten_free TINYINT NOT NULL DEFAULT 0,
  spicy TINYINT NOT NULL DEFAULT 0, sugar TINYINT NOT NULL DEFAULT 0,
  vegan TINYINT NOT NULL DEFAULT 0, vegetarian TINYINT NOT NULL DEFAULT 0,
  halal TINYINT NOT NULL DEFAULT 0, casherut TINYINT NOT NULL DEFAULT 0,
  deleted TINYINT NOT NULL DEFAULT 0
);
CREATE TABLE product_ingredient (id_product BIGINT, id_ingredient BIGINT, deleted TINYINT NOT NULL DEFAULT 0);
CREATE TABLE product_restaurant_ingredient (id_product_restaurant BIGINT, id_ingredient BIGINT, deleted TINYINT NOT NULL DEFAULT 0);
CREATE TABLE ingredient_allergen (id_ingredient BIGINT, id_allergen BIGINT, deleted TINYINT NOT NULL DEFAULT 0);
CREATE TABLE users_allergen (id_user BIGINT, id_allergen BIGINT, deleted TINYINT NOT NULL DEFAULT 0);
CREATE TABLE users_preferences (
  id BIGINT PRIMARY KEY,
  alcohol TINYINT NOT NULL DEFAULT 0, gluten_free TINYINT NOT NULL DEFAULT 0,
  spicy TINYINT NOT NULL DEFAULT 0, sugar TINYINT NOT NULL DEFAULT 0,
  vegan TINYINT NOT NULL DEFAULT 0, vegetarian TINYINT NOT NULL DEFAULT 0,
  halal TINYINT NOT NULL DEFAULT 0, casherut TINYINT NOT NULL DEFAULT 0
);
CREATE TABLE users_product_favorite (id_user BIGINT, id_product_restaurant BIGINT, deleted TINYINT NOT NULL DEFAULT 0);
CREATE TABLE advisor_campaign_product (id_product_restaurant BIGINT, deleted TINYINT NOT NULL DEFAULT 0);
CREATE TABLE users_product_ai (
  id BIGINT PRIMARY KEY AUTO_INCREMENT,
  id_user BIGINT NULL,
  mac_address TEXT NULL,
  id_product BIGINT NOT NULL,
  ` + "`rank`" + ` INT NOT NULL
);
`

// MySQLContainer is a disposable MySQL server with MenuSchema applied.
type MySQLContainer struct {
	testcontainers.Container
	Config config.MySQLConfig
}

type mysqlOptions struct {
	image        string
	startTimeout time.Duration
	initSQL      []string
}

// MySQLOption customizes NewMySQLContainer.
type MySQLOption func(*mysqlOptions)

// WithMySQLImage overrides the image.
func WithMySQLImage(image string) MySQLOption {
	return func(o *mysqlOptions) { o.image = image }
}

// WithSeedSQL runs extra statements after MenuSchema.
func WithSeedSQL(sql string) MySQLOption {
	return func(o *mysqlOptions) { o.initSQL = append(o.initSQL, sql) }
}

// NewMySQLContainer starts MySQL and waits until it accepts connections.
func NewMySQLContainer(ctx context.Context, opts ...MySQLOption) (*MySQLContainer, error) {
	o := &mysqlOptions{
		image:        DefaultMySQLImage,
		startTimeout: 2 * time.Minute,
		initSQL:      []string{MenuSchema},
	}
	for _, opt := range opts {
		opt(o)
	}

	files := make([]testcontainers.ContainerFile, len(o.initSQL))
	for i, sql := range o.initSQL {
		files[i] = testcontainers.ContainerFile{
			Reader:            strings.NewReader(sql),
			ContainerFilePath: fmt.Sprintf("/docker-entrypoint-initdb.d/%02d.sql", i),
			FileMode:          0o644,
		}
	}

	req := testcontainers.ContainerRequest{
		Image:        o.image,
		ExposedPorts: []string{mysqlPort},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": testPassword,
			"MYSQL_DATABASE":      testDatabase,
			"MYSQL_USER":          testUser,
			"MYSQL_PASSWORD":      testPassword,
			"TZ":                  "UTC",
		},
		Files: files,
		// The entrypoint starts a temporary server for init scripts first.
		WaitingFor: wait.ForAll(
			wait.ForLog("ready for connections").WithOccurrence(2),
			wait.ForListeningPort(mysqlPort),
		).WithStartupTimeout(o.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create mysql container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, mysqlPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}
	portNum, err := strconv.Atoi(port.Port())
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("parse mapped port: %w", err)
	}

	return &MySQLContainer{
		Container: container,
		Config: config.MySQLConfig{
			Host:               host,
			Port:               portNum,
			User:               testUser,
			Password:           testPassword,
			Database:           testDatabase,
			MaxOpenConns:       4,
			QueryTimeout:       30 * time.Second,
			ChunkSize:          2,
			BreakerMaxFailures: 5,
			BreakerTimeout:     time.Second,
		},
	}, nil
}

// StartMySQL starts a container for t and terminates it on cleanup.
func StartMySQL(t *testing.T, opts ...MySQLOption) *MySQLContainer {
	t.Helper()
	SkipIfNoDocker(t)

	ctx := context.Background()
	c, err := NewMySQLContainer(ctx, opts...)
	if err != nil {
		t.Fatalf("start mysql: %v", err)
	}
	t.Cleanup(func() { CleanupContainer(t, ctx, c.Container) })
	return c
}
