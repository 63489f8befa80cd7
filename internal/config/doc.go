// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package config loads menurank configuration with Koanf v2.

Sources, lowest to highest precedence:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, ./config.yaml or /etc/menurank/config.yaml
 3. Environment variables listed in envMappings

Commonly set variables:

	MENURANK_MODE      once (default) or serve
	MENURANK_SOURCE    csv (default), duckdb or mysql
	MENURANK_SINKS     comma-separated: csv, duckdb, mysql, redis
	MENURANK_NOW       pin the run clock, "YYYY-MM-DD HH:MM:SS" UTC
	MENURANK_WORKERS   users scored concurrently (default 1)
	DATA_DIR           directory of the CSV snapshots (default data)
	MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
	SNAPSHOT_ENABLED   mirror MySQL into DuckDB on an interval
	REDIS_ADDR         score cache for the redis sink
	NATS_ENABLED       publish run notifications

Credentials are never defaulted; supply them through the environment or a
file readable only by the service account.
*/
package config
