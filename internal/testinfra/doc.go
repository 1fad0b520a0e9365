// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run a real PostgreSQL server so the
// source provider is exercised against the same driver and placeholder style
// as production:
//
//	func TestSourcePostgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    provider, err := source.Open(ctx, config.SourceConfig{Driver: "postgres", DSN: pg.DSN, ...}, logger)
//	}
//
// All files carry the integration build tag:
//
//	go test -tags integration ./...
package testinfra
