// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package interactions provides the interaction sources that feed the
// user-article rating matrix.
//
// LogSource aggregates the reader usage log and is the production source.
// SyntheticSource draws seeded interactions for bootstrapping and tests; it
// is only used when configured explicitly.
package interactions

import (
	"fmt"
	"time"

	"github.com/tomtom215/lectern/internal/recommend"
)

// Source names accepted by New.
const (
	SourceLog       = "log"
	SourceSynthetic = "synthetic"
)

// Source loads one interaction set for a cycle's working set.
type Source = recommend.InteractionSource

// Config selects and tunes the interaction source.
type Config struct {
	// Name is "log" or "synthetic".
	Name string `koanf:"name" validate:"oneof=log synthetic"`

	// Seed drives the synthetic generator.
	Seed int64 `koanf:"seed"`
}

// DefaultConfig returns the production source configuration.
func DefaultConfig() Config {
	return Config{Name: SourceLog, Seed: 42}
}

// New builds the configured source.
func New(cfg Config, provider recommend.DataProvider) (Source, error) {
	switch cfg.Name {
	case SourceLog:
		if provider == nil {
			return nil, fmt.Errorf("log source requires a data provider")
		}
		return NewLogSource(provider), nil
	case SourceSynthetic:
		return NewSyntheticSource(cfg.Seed, time.Now), nil
	default:
		return nil, fmt.Errorf("unknown interaction source %q", cfg.Name)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
