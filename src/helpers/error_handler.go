package helpers

import (
	"context"
	"fmt"
	"time"

	"bubble-model/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type BubbleModelError struct {
	Message string
	Cause   error
}

func (e *BubbleModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BubbleModelError) Unwrap() error {
	return e.Cause
}

// Distinct error kinds, matched with errors.As.
type ConfigurationError struct{ BubbleModelError }
type ValidationError struct{ BubbleModelError }
type DataSourceError struct{ BubbleModelError }
type NetworkError struct{ BubbleModelError }
type DatabaseError struct{ BubbleModelError }

// AxisLookupError means a calendar time is not on the (filtered) asset axis.
type AxisLookupError struct {
	BubbleModelError
	Time time.Time
}

// MissingCoefficientError means an asset column has no speculation gain.
type MissingCoefficientError struct {
	BubbleModelError
	Asset string
}

// MisalignedAxisError means asset columns do not share one strictly increasing axis.
type MisalignedAxisError struct {
	BubbleModelError
	Asset string
}

// -----------------------------------------------------------------------------

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{BubbleModelError{Message: fmt.Sprintf(format, args...)}}
}

func NewConfigurationError(message string, cause error) error {
	return &ConfigurationError{BubbleModelError{Message: message, Cause: cause}}
}

func NewDataSourceError(message string, cause error) error {
	return &DataSourceError{BubbleModelError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) error {
	return &DatabaseError{BubbleModelError{Message: message, Cause: cause}}
}

func NewNetworkError(message string, cause error) error {
	return &NetworkError{BubbleModelError{Message: message, Cause: cause}}
}

func NewAxisLookupError(t time.Time) error {
	return &AxisLookupError{
		BubbleModelError: BubbleModelError{Message: fmt.Sprintf("time %s not found on calendar axis", t.Format(time.RFC3339))},
		Time:             t,
	}
}

func NewMissingCoefficientError(asset string) error {
	return &MissingCoefficientError{
		BubbleModelError: BubbleModelError{Message: fmt.Sprintf("no speculation gain for asset '%s'", asset)},
		Asset:            asset,
	}
}

func NewMisalignedAxisError(asset string, format string, args ...interface{}) error {
	return &MisalignedAxisError{
		BubbleModelError: BubbleModelError{Message: fmt.Sprintf(format, args...)},
		Asset:            asset,
	}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with exponential backoff.
// It stops early when ctx is cancelled.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, NewNetworkError(fmt.Sprintf("%s failed after %d attempts", operation, maxRetries), lastErr)
}
