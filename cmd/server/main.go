// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/supervisor"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging)
	logger := logging.Logger()
	metrics.RecordAppInfo(version)

	logger.Info().
		Str("version", version).
		Str("source_driver", cfg.Source.Driver).
		Str("store_path", cfg.Store.Path).
		Str("interactions", cfg.Interactions.Name).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Bool("events_enabled", cfg.Events.Enabled).
		Msg("Starting Lectern with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize components")
		os.Exit(1)
	}
	defer app.close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create supervisor tree")
		app.close()
		os.Exit(1) //nolint:gocritic // resources closed above
	}
	app.register(tree)

	logger.Info().Str("addr", cfg.Server.Addr()).Msg("Supervisor tree starting")
	errCh := tree.ServeBackground(ctx)

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received, stopping services")

	if err := <-errCh; err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logger.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	logger.Info().Msg("Lectern stopped")
}
