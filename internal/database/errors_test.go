// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package database

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// mockCloser implements io.Closer for testing
type mockCloser struct {
	closed bool
	err    error
}

func (m *mockCloser) Close() error {
	m.closed = true
	return m.err
}

func TestCloseWithLog(t *testing.T) {
	t.Run("nil closer does not panic", func(t *testing.T) {
		var buf bytes.Buffer
		closeWithLog(nil, zerolog.New(&buf), "test")
		if buf.Len() > 0 {
			t.Errorf("expected no log output for nil closer, got: %s", buf.String())
		}
	})

	t.Run("successful close does not log", func(t *testing.T) {
		var buf bytes.Buffer
		closer := &mockCloser{}
		closeWithLog(closer, zerolog.New(&buf), "test resource")

		if !closer.closed {
			t.Error("expected closer to be closed")
		}
		if buf.Len() > 0 {
			t.Errorf("expected no log output for successful close, got: %s", buf.String())
		}
	})

	t.Run("error during close is logged", func(t *testing.T) {
		var buf bytes.Buffer
		closer := &mockCloser{err: errors.New("close failed")}
		closeWithLog(closer, zerolog.New(&buf), "prepared statement")

		out := buf.String()
		if !strings.Contains(out, "close failed") || !strings.Contains(out, "prepared statement") {
			t.Errorf("log output = %q, want error and resource type", out)
		}
	})
}

func TestCloseQuietly(t *testing.T) {
	closeQuietly(nil)

	closer := &mockCloser{err: errors.New("ignored")}
	closeQuietly(closer)
	if !closer.closed {
		t.Error("expected closer to be closed")
	}
}

func TestIsTransactionConflict(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("TransactionContext Error: Transaction conflict: cannot update"), true},
		{errors.New("Conflict on update of row"), true},
		{fmt.Errorf("publish: %w", errors.New("Transaction conflict")), true},
		{errors.New("Catalog Error: table does not exist"), false},
	}
	for _, tt := range tests {
		if got := isTransactionConflict(tt.err); got != tt.want {
			t.Errorf("isTransactionConflict(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestIsNoRows(t *testing.T) {
	if !isNoRows(fmt.Errorf("scan: %w", sql.ErrNoRows)) {
		t.Error("wrapped sql.ErrNoRows not detected")
	}
	if isNoRows(errors.New("other")) {
		t.Error("unrelated error detected as no rows")
	}
}
