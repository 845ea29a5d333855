package qlimit

import (
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/ajiwo/qlimit/metrics"
	"github.com/ajiwo/qlimit/quota"
	"github.com/ajiwo/qlimit/utils"
)

const (
	// DefaultName is the limiter name used in logs and metrics when none is set
	DefaultName = "default"

	// DefaultRetryInterval is how often a limiter blocked only by its rate
	// ceiling re-checks the window
	DefaultRetryInterval = 100 * time.Millisecond

	// DefaultWeight is the weight of a task submitted without WithWeight
	DefaultWeight = 1.0
)

// config holds the settings collected from options
type config struct {
	name          string
	quota         *quota.Quota
	manager       *quota.Manager
	clock         clock.WithDelayedExecution
	logger        logr.Logger
	metrics       *metrics.Recorder
	retryInterval time.Duration
}

// Option is a functional option for configuring the limiter
type Option func(*config) error

// WithQuota configures the limiter with a raw quota; a manager is created for it
func WithQuota(q quota.Quota) Option {
	return func(c *config) error {
		c.quota = &q
		return nil
	}
}

// WithManager configures the limiter with a prebuilt quota manager.
// Limiters sharing a manager share its capacity.
func WithManager(m *quota.Manager) Option {
	return func(c *config) error {
		if m == nil {
			return fmt.Errorf("quota manager cannot be nil")
		}
		c.manager = m
		return nil
	}
}

// WithName sets the name used in logs and metric labels
func WithName(name string) Option {
	return func(c *config) error {
		if err := utils.ValidateName(name); err != nil {
			return err
		}
		c.name = name
		return nil
	}
}

// WithClock sets the time source for timestamps and timers.
// When the limiter creates its own manager, the manager uses it too.
func WithClock(clk clock.WithDelayedExecution) Option {
	return func(c *config) error {
		if clk == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.clock = clk
		return nil
	}
}

// WithLogger sets the logger; the default discards everything
func WithLogger(logger logr.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics records limiter activity with r
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *config) error {
		c.metrics = r
		return nil
	}
}

// WithRetryInterval sets how often a rate-blocked queue is re-checked
func WithRetryInterval(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("retry interval must be positive, got %v", d)
		}
		c.retryInterval = d
		return nil
	}
}

// SubmitOption defines a functional option for a single submission
type SubmitOption func(*submitOptions)

// submitOptions holds the settings of a single submission
type submitOptions struct {
	weight float64
}

// WithWeight sets the task's weight against the rate ceiling (default 1)
func WithWeight(weight float64) SubmitOption {
	return func(o *submitOptions) {
		o.weight = weight
	}
}

// validateWeight rejects weights that can never be admitted
func validateWeight(weight float64, m *quota.Manager) error {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return NewInvalidWeightError(weight)
	}
	if m.Quota().HasRate() && weight > m.EffectiveRate() {
		return NewWeightExceedsRateError(weight, m.EffectiveRate())
	}
	return nil
}
