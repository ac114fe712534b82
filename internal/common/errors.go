// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Training data errors.
	ErrNoTrainingData = errors.New("no training data loaded")

	// Reasoning service errors.
	ErrServiceUnavailable = errors.New("reasoning service unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DataSourceError indicates the training source was missing or unreadable.
// It is fatal to the load operation and surfaced to the caller.
type DataSourceError struct {
	Err    error
	Source string
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("training source %s unavailable: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// NewDataSourceError wraps a source-level load failure.
func NewDataSourceError(source string, err error) error {
	return &DataSourceError{Source: source, Err: err}
}

// RowWarning records a malformed training row that was skipped during a
// load. Row-level problems never abort the load.
type RowWarning struct {
	Reason string
	Text   string
	Row    int
}

func (w RowWarning) String() string {
	return fmt.Sprintf("row %d skipped: %s", w.Row, w.Reason)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
