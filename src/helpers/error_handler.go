package helpers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"market-dashboard/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type DashboardError struct {
	Message string
	Cause   error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ DashboardError }
type FeedError struct{ DashboardError }
type ActionError struct{ DashboardError }
type DatabaseError struct{ DashboardError }
type ValidationError struct{ DashboardError }

func NewConfigurationError(msg string, cause error) error {
	return &ConfigurationError{DashboardError{Message: msg, Cause: cause}}
}

func NewFeedError(msg string, cause error) error {
	return &FeedError{DashboardError{Message: msg, Cause: cause}}
}

func NewActionError(msg string, cause error) error {
	return &ActionError{DashboardError{Message: msg, Cause: cause}}
}

func NewDatabaseError(msg string, cause error) error {
	return &DatabaseError{DashboardError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string, cause error) error {
	return &ValidationError{DashboardError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------

// UserMessage turns an error into text fit for the dashboard notice area.
// Action errors carry a backend message and are shown as-is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries times, doubling baseDelay between attempts.
// It stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
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
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger *logger.Logger

	mu         sync.Mutex
	errorCount int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.errorCount++
	e.mu.Unlock()
	e.Logger.Error("Error in %s: %v", context, err)
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errorCount
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	e.errorCount = 0
	e.mu.Unlock()
}
