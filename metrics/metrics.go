// Package metrics exposes limiter activity as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for settled tasks
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Recorder contains the Prometheus metrics of one or more limiters.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	// Admission decisions
	admissions     *prometheus.CounterVec
	admittedWeight *prometheus.CounterVec
	denials        *prometheus.CounterVec

	// Task outcomes
	timeouts *prometheus.CounterVec
	settled  *prometheus.CounterVec

	// Current state
	active      *prometheus.GaugeVec
	queueLength *prometheus.GaugeVec
	queueWeight *prometheus.GaugeVec

	// Time from submission to start
	queueWait *prometheus.HistogramVec
}

// New creates a Recorder and registers its collectors with reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		admissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qlimit_admissions_total",
				Help: "Total number of tasks admitted to run",
			},
			[]string{"limiter"},
		),

		admittedWeight: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qlimit_admitted_weight_total",
				Help: "Total weight of tasks admitted to run",
			},
			[]string{"limiter"},
		),

		denials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qlimit_denials_total",
				Help: "Total number of admission attempts denied, by limiting constraint",
			},
			[]string{"limiter", "reason"},
		),

		timeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qlimit_timeouts_total",
				Help: "Total number of tasks abandoned after exceeding the maximum queuing delay",
			},
			[]string{"limiter"},
		),

		settled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qlimit_tasks_settled_total",
				Help: "Total number of admitted or rejected tasks that reached a final state",
			},
			[]string{"limiter", "outcome"},
		),

		active: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "qlimit_active",
				Help: "Current number of running tasks",
			},
			[]string{"limiter"},
		),

		queueLength: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "qlimit_queue_length",
				Help: "Current number of queued tasks",
			},
			[]string{"limiter"},
		),

		queueWeight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "qlimit_queue_weight",
				Help: "Current total weight of queued tasks",
			},
			[]string{"limiter"},
		),

		queueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qlimit_queue_wait_seconds",
				Help:    "Time tasks spent queued before starting",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"limiter"},
		),
	}
}

// RecordAdmission records an admitted task and how long it waited.
func (r *Recorder) RecordAdmission(limiter string, weight float64, wait time.Duration) {
	if r == nil {
		return
	}
	r.admissions.WithLabelValues(limiter).Inc()
	r.admittedWeight.WithLabelValues(limiter).Add(weight)
	r.queueWait.WithLabelValues(limiter).Observe(wait.Seconds())
}

// RecordDenial records a denied admission attempt.
func (r *Recorder) RecordDenial(limiter, reason string) {
	if r == nil {
		return
	}
	r.denials.WithLabelValues(limiter, reason).Inc()
}

// RecordTimeout records a task abandoned by its queuing deadline.
func (r *Recorder) RecordTimeout(limiter string) {
	if r == nil {
		return
	}
	r.timeouts.WithLabelValues(limiter).Inc()
}

// RecordSettled records a task reaching a final state other than timeout.
func (r *Recorder) RecordSettled(limiter string, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.settled.WithLabelValues(limiter, outcome).Inc()
}

// RecordRejected records a task refused at submission.
func (r *Recorder) RecordRejected(limiter string) {
	if r == nil {
		return
	}
	r.settled.WithLabelValues(limiter, OutcomeRejected).Inc()
}

// SetState publishes the current running count and queue size.
func (r *Recorder) SetState(limiter string, active, queued int, queuedWeight float64) {
	if r == nil {
		return
	}
	r.active.WithLabelValues(limiter).Set(float64(active))
	r.queueLength.WithLabelValues(limiter).Set(float64(queued))
	r.queueWeight.WithLabelValues(limiter).Set(queuedWeight)
}
