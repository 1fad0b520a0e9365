// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/lectern/internal/recommend/algorithms"
)

// InsufficientDataError marks a sub-model that could not be built from the
// snapshot. It is recovered locally and never aborts a cycle.
type InsufficientDataError = algorithms.InsufficientDataError

// ErrInsufficientData is wrapped by every InsufficientDataError.
var ErrInsufficientData = algorithms.ErrInsufficientData

var (
	// ErrUnknownEntity is returned when a user or article is not part of the
	// current cycle's working set.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrPipelineFailure is wrapped by every PipelineError.
	ErrPipelineFailure = errors.New("pipeline failure")

	// ErrCycleInProgress is returned when a cycle is triggered while another
	// one is computing.
	ErrCycleInProgress = errors.New("recommendation cycle already in progress")

	// ErrNoCycle is returned by readers before the first cycle completes.
	ErrNoCycle = errors.New("no completed recommendation cycle")

	// ErrAlreadyCalculated is returned when today's cycle already completed
	// and the trigger was not forced.
	ErrAlreadyCalculated = errors.New("recommendations already calculated today")
)

// PipelineError aborts one cycle. The previously published cycle stays
// visible.
type PipelineError struct {
	Step   string
	Reason string
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pipeline failure at %s: %s: %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("pipeline failure at %s: %s", e.Step, e.Reason)
}

// Unwrap supports errors.Is for both ErrPipelineFailure and the cause.
func (e *PipelineError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPipelineFailure, e.Err}
	}
	return []error{ErrPipelineFailure}
}

func pipelineError(step, reason string, err error) error {
	return &PipelineError{Step: step, Reason: reason, Err: err}
}

// unknown formats an ErrUnknownEntity for a kind and id.
func unknown(kind string, id int) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrUnknownEntity)
}
