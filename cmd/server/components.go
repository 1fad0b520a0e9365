// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/api"
	"github.com/tomtom215/lectern/internal/cache"
	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/database"
	"github.com/tomtom215/lectern/internal/events"
	"github.com/tomtom215/lectern/internal/recommend"
	"github.com/tomtom215/lectern/internal/recommend/interactions"
	"github.com/tomtom215/lectern/internal/source"
	"github.com/tomtom215/lectern/internal/supervisor"
	"github.com/tomtom215/lectern/internal/supervisor/services"
)

// application holds the initialized components.
type application struct {
	provider  *source.SQLProvider
	engine    *recommend.Engine
	store     *database.DB
	cache     *cache.Cache
	bus       *events.Bus
	scheduler *services.RecommendService
	server    *http.Server

	cfg    *config.Config
	logger zerolog.Logger
}

// build initializes every component. On error, already opened resources are
// closed.
//
//nolint:gocritic // zerolog.Logger is passed by value
func build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logger}
	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (a *application) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	var err error
	a.provider, err = source.Open(ctx, cfg.Source, logger)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	var provider recommend.DataProvider = a.provider
	if cfg.Source.Breaker.Enabled {
		provider = source.NewCircuitBreakerProvider(a.provider, "source", cfg.Source.Breaker, logger)
	}

	interactionSource, err := interactions.New(cfg.Interactions, provider)
	if err != nil {
		return fmt.Errorf("create interaction source: %w", err)
	}

	a.engine, err = recommend.NewEngine(&cfg.Recommend, provider, interactionSource, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	a.store, err = database.New(cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open cycle store: %w", err)
	}
	a.engine.SetStore(a.store)

	if cfg.Cache.Enabled {
		a.cache, err = cache.Open(cfg.Cache, logger)
		if err != nil {
			return fmt.Errorf("open serving cache: %w", err)
		}
	}

	if cfg.Events.Enabled {
		a.bus, err = events.New(cfg.Events, logger)
		if err != nil {
			return fmt.Errorf("create event bus: %w", err)
		}
		a.engine.SetEventPublisher(a.bus)
	}

	a.scheduler, err = services.NewRecommendService(a.engine, a.store, services.RecommendServiceConfig{
		Schedule:    cfg.Schedule,
		DaysToKeep:  cfg.Store.DaysToKeep,
		HistoryDays: cfg.Store.HistoryDays,
	}, logger)
	if err != nil {
		return fmt.Errorf("create recommend service: %w", err)
	}

	handler := api.NewHandler(api.Options{
		Engine:     a.engine,
		Store:      a.store,
		Cache:      a.cache,
		Scheduler:  a.scheduler,
		DaysToKeep: cfg.Store.DaysToKeep,
		Version:    version,
		Logger:     logger,
	})
	a.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return nil
}

// register adds the long-running services to their supervisor layers.
func (a *application) register(tree *supervisor.SupervisorTree) {
	tree.AddDataService(a.scheduler)
	if a.cache != nil {
		tree.AddDataService(a.cache)
	}

	if a.cache != nil && a.bus != nil {
		c := a.cache
		tree.AddMessagingService(events.NewListener(a.bus, "cache-retention", recommend.CycleStatusCompleted,
			func(_ context.Context, event recommend.CycleEvent) error {
				_, err := c.Retain(event.CycleID)
				return err
			}, a.logger))
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.server.Addr, a.cfg.Server.ShutdownTimeout, a.logger))
}

// close releases resources in reverse order of creation.
func (a *application) close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing serving cache")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing cycle store")
		}
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing source")
		}
	}
}
