// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/lectern/internal/validation"
)

// Validate checks struct tags first, then the cross-field rules tags
// cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateSource(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	return c.validateSchedule()
}

// validateSource requires a DSN that matches the driver.
func (c *Config) validateSource() error {
	dsn := strings.TrimSpace(c.Source.DSN)
	if dsn == "" {
		return fmt.Errorf("SOURCE_DSN is required")
	}
	if c.Source.Driver == DriverPostgres {
		if err := validatePostgresDSN(dsn); err != nil {
			return fmt.Errorf("SOURCE_DSN is invalid: %w", err)
		}
	}
	if containsPlaceholder(dsn) {
		return fmt.Errorf("SOURCE_DSN contains a placeholder value")
	}
	return nil
}

// validateStore keeps history at least as long as recommendation rows.
func (c *Config) validateStore() error {
	if c.Store.HistoryDays < c.Store.DaysToKeep {
		return fmt.Errorf("store.history_days (%d) must be >= store.days_to_keep (%d)",
			c.Store.HistoryDays, c.Store.DaysToKeep)
	}
	return nil
}

// validateCache requires a directory for a disk-backed cache.
func (c *Config) validateCache() error {
	if c.Cache.Enabled && !c.Cache.InMemory && strings.TrimSpace(c.Cache.Dir) == "" {
		return fmt.Errorf("CACHE_DIR is required when the cache is enabled and not in memory")
	}
	return nil
}

// validateEvents requires a broker URL for the nats backend.
func (c *Config) validateEvents() error {
	if !c.Events.Enabled || c.Events.Backend != EventsBackendNATS {
		return nil
	}
	if c.Events.URL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats")
	}
	if err := validateNATSURL(c.Events.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	return nil
}

// validateSchedule keeps the daily cycle and weekly cleanup apart.
func (c *Config) validateSchedule() error {
	if c.Schedule.Enabled && c.Schedule.DailyHour == c.Schedule.CleanupHour {
		return fmt.Errorf("schedule.cleanup_hour must differ from schedule.daily_hour (%d)", c.Schedule.DailyHour)
	}
	return nil
}

// placeholderPatterns are values copied from example configs.
var placeholderPatterns = []string{
	"changeme",
	"your_password",
	"<password>",
}

// containsPlaceholder checks if a value looks like an unedited example.
func containsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
