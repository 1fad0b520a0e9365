// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package logging provides the zerolog-based structured logging used across
// Lectern.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//
//	logging.Info().Str("cycle_id", id).Msg("Cycle complete")
//	logging.Err(err).Msg("Cycle failed")
//	logging.Ctx(ctx).Info().Msg("Request served")
//
// Components take a zerolog.Logger by value and scope it:
//
//	logger := logging.Logger().With().Str("component", "recommend").Logger()
//
// # Adapters
//
// SlogHandler feeds the supervisor tree (sutureslog requires *slog.Logger)
// and WatermillAdapter feeds the cycle event publisher, so every subsystem
// writes through the same zerolog output.
package logging
