package qlimit

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrQueueTimeout is returned for a task still queued when the quota's
	// maximum delay elapsed. The task's operation never ran.
	ErrQueueTimeout = errors.New("queue max delay exceeded")

	// ErrLimiterClosed is returned for tasks submitted to, or still queued in,
	// a closed limiter.
	ErrLimiterClosed = errors.New("limiter is closed")

	// Submission errors
	ErrInvalidWeight     = errors.New("task weight must be a non-negative number")
	ErrWeightExceedsRate = errors.New("task weight exceeds the quota rate")
	ErrNilOperation      = errors.New("task operation cannot be nil")

	// Configuration errors
	ErrConflictingQuota = errors.New("quota and quota manager are mutually exclusive")

	// errTaskPanicked settles a task whose operation panicked
	errTaskPanicked = errors.New("task operation panicked")
)

// Submission error functions
func NewQueueTimeoutError(maxDelay time.Duration) error {
	return fmt.Errorf("%w: not started within %v", ErrQueueTimeout, maxDelay)
}

func NewInvalidWeightError(weight float64) error {
	return fmt.Errorf("%w, got %v", ErrInvalidWeight, weight)
}

func NewWeightExceedsRateError(weight, rate float64) error {
	return fmt.Errorf("%w: weight %v can never fit within rate %v", ErrWeightExceedsRate, weight, rate)
}

// Configuration error functions
func NewOptionError(err error) error {
	return fmt.Errorf("failed to apply option: %w", err)
}

func NewManagerError(err error) error {
	return fmt.Errorf("failed to create quota manager: %w", err)
}
