// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

//go:build integration

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here sits behind the integration build tag:
//
//	go test -tags integration ./...
//
// MySQLContainer runs a MySQL server with the menu platform tables
// (MenuSchema) and returns a ready config.MySQLConfig:
//
//	func TestExtract(t *testing.T) {
//	    db := testinfra.StartMySQL(t, testinfra.WithSeedSQL(seed))
//	    client, err := mysql.Open(ctx, db.Config, zerolog.Nop())
//	    ...
//	}
package testinfra
