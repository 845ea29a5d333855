// Package quota holds the admission limits of a limiter and the manager that
// enforces them.
//
// A Quota combines an optional concurrency ceiling, an optional sliding-window
// rate ceiling (Rate units of weight per Interval) and an optional maximum
// queuing delay. Zero means "not set" for every field.
package quota

import (
	"time"
)

// Quota describes admission limits. It is a value type; the manager keeps its
// own copy, so changing a Quota after use has no effect.
type Quota struct {
	// Concurrency is the maximum number of running invocations, 0 for unlimited
	Concurrency int `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`

	// Interval is the sliding window length for Rate
	Interval time.Duration `yaml:"interval,omitempty" json:"interval,omitempty"`

	// Rate is the maximum weight admitted within any trailing Interval
	Rate float64 `yaml:"rate,omitempty" json:"rate,omitempty"`

	// MaxDelay bounds how long an invocation may wait in the queue, 0 to wait forever
	MaxDelay time.Duration `yaml:"max_delay,omitempty" json:"max_delay,omitempty"`
}

// HasConcurrency reports whether a concurrency ceiling is configured
func (q Quota) HasConcurrency() bool {
	return q.Concurrency > 0
}

// HasRate reports whether a rate ceiling is configured
func (q Quota) HasRate() bool {
	return q.Interval > 0 && q.Rate > 0
}

// Validate checks the quota; interval and rate must be set together
func (q Quota) Validate() error {
	if q.Concurrency < 0 {
		return NewNegativeFieldError("concurrency", q.Concurrency)
	}
	if q.Interval < 0 {
		return NewNegativeFieldError("interval", q.Interval)
	}
	if q.Rate < 0 {
		return NewNegativeFieldError("rate", q.Rate)
	}
	if q.MaxDelay < 0 {
		return NewNegativeFieldError("max_delay", q.MaxDelay)
	}

	if q.Interval > 0 && q.Rate == 0 {
		return NewConfigError("rate", q.Rate, ErrIntervalWithoutRate)
	}
	if q.Rate > 0 && q.Interval == 0 {
		return NewConfigError("interval", q.Interval, ErrRateWithoutInterval)
	}

	return nil
}

// IsUnlimited reports whether the quota admits everything immediately
func (q Quota) IsUnlimited() bool {
	return !q.HasConcurrency() && !q.HasRate()
}
