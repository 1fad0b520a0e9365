// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is the sentinel matched by every InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports that a model could not be built from the
// available data. It is recoverable: callers mark the model unavailable and
// continue with the remaining signals.
type InsufficientDataError struct {
	Model  string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: %s", e.Model, e.Reason)
}

// Unwrap lets errors.Is match ErrInsufficientData.
func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

func insufficient(model, format string, args ...any) error {
	return &InsufficientDataError{Model: model, Reason: fmt.Sprintf(format, args...)}
}
