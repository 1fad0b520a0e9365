// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package supervisor runs Lectern's long-lived services under a suture v4
supervisor tree.

# Layout

	root ("lectern")
	├── data-layer
	│   ├── recommend-service     daily cycle, weekly cleanup, triggers
	│   └── serving-cache-gc      badger value log GC
	├── messaging-layer
	│   └── cache-retain          drops cache entries of superseded cycles
	└── api-layer
	    └── http-server

Each layer is its own supervisor, so repeated failures in one layer back
off without restarting the others. Supervisor events are logged through
sutureslog on a zerolog-backed slog handler (see logging.NewSlogLogger).

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddDataService(recommendSvc)
	tree.AddAPIService(httpSvc)

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

After shutdown, UnstoppedServiceReport lists services that ignored
cancellation past TreeConfig.ShutdownTimeout.
*/
package supervisor
