package qlimit

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/ajiwo/qlimit/dequeue"
	"github.com/ajiwo/qlimit/internal/logging"
	"github.com/ajiwo/qlimit/metrics"
	"github.com/ajiwo/qlimit/quota"
)

// Limiter queues submitted operations and starts them in submission order as
// its quota allows.
//
// All scheduling bookkeeping runs under one mutex, so each queue or quota
// mutation completes before any other scheduling logic runs. Operations run
// on their own goroutines; timer callbacks re-enter through the mutex.
type Limiter struct {
	name          string
	manager       *quota.Manager
	clock         clock.WithDelayedExecution
	logger        logr.Logger
	metrics       *metrics.Recorder
	retryInterval time.Duration

	mu sync.Mutex

	// queue holds tasks waiting for admission, weighted by task weight
	queue *dequeue.Deque[*Task]

	// abandoned tracks timed-out tasks still sitting in queue. They are
	// dropped once they reach the head and their weight never counts as pending.
	abandonedWeight float64
	abandonedCount  int

	// running counts this limiter's admitted, unsettled tasks
	running int

	retryTimer clock.Timer
	closed     bool
}

// New creates a limiter with functional options.
//
// Pass WithQuota for a raw quota or WithManager for a prebuilt manager. With
// neither, every task is admitted immediately.
func New(opts ...Option) (*Limiter, error) {
	cfg := config{
		name:          DefaultName,
		clock:         clock.RealClock{},
		logger:        logr.Discard(),
		retryInterval: DefaultRetryInterval,
	}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, NewOptionError(err)
		}
	}

	if cfg.quota != nil && cfg.manager != nil {
		return nil, ErrConflictingQuota
	}

	logger := cfg.logger.WithName("qlimit").WithValues("limiter", cfg.name)

	manager := cfg.manager
	if manager == nil {
		var q quota.Quota
		if cfg.quota != nil {
			q = *cfg.quota
		} else {
			logger.Info("Limiter created with no quota; tasks are admitted immediately")
		}

		m, err := quota.NewManager(q, quota.WithClock(cfg.clock))
		if err != nil {
			return nil, NewManagerError(err)
		}
		manager = m
	}

	l := &Limiter{
		name:          cfg.name,
		manager:       manager,
		clock:         cfg.clock,
		logger:        logger,
		metrics:       cfg.metrics,
		retryInterval: cfg.retryInterval,
		queue:         dequeue.New[*Task](),
	}

	q := manager.Quota()
	logger.V(logging.DEFAULT).Info("Limiter initialized",
		"concurrency", q.Concurrency, "interval", q.Interval, "rate", q.Rate, "maxDelay", q.MaxDelay)

	return l, nil
}

// Name returns the limiter's name
func (l *Limiter) Name() string {
	return l.name
}

// Manager returns the quota manager deciding admissions
func (l *Limiter) Manager() *quota.Manager {
	return l.manager
}

// Submit queues fn and returns its task handle without waiting.
//
// ctx is passed to fn when it runs; it does not cancel the queued task. A task
// that cannot be accepted (closed limiter, nil fn, invalid weight) is returned
// already settled in StateRejected.
func (l *Limiter) Submit(ctx context.Context, fn Operation, opts ...SubmitOption) *Task {
	so := submitOptions{weight: DefaultWeight}
	for _, opt := range opts {
		opt(&so)
	}

	t := newTask(ctx, fn, so.weight, l.clock.Now())

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkSubmitLocked(t); err != nil {
		t.settle(StateRejected, err)
		l.metrics.RecordRejected(l.name)
		l.logger.V(logging.DEBUG).Info("Task rejected", "task", t.id, "weight", t.weight, "reason", err.Error())
		return t
	}

	l.queue.PushBack(t, t.weight)
	l.logger.V(logging.TRACE).Info("Task queued", "task", t.id, "weight", t.weight, "queueLength", l.queue.Len())

	if maxDelay := l.manager.MaxDelay(); maxDelay > 0 {
		t.timer = l.clock.AfterFunc(maxDelay, func() {
			// Fake clocks run callbacks while holding their own lock
			go l.expire(t, maxDelay)
		})
	}

	l.drainLocked()
	return t
}

// Do submits fn and waits for its result
func (l *Limiter) Do(ctx context.Context, fn Operation, opts ...SubmitOption) error {
	return l.Submit(ctx, fn, opts...).Wait(ctx)
}

// Call submits fn on l and waits for its value and error.
// If ctx ends before the task settles, Call returns the zero value and ctx.Err().
func Call[T any](ctx context.Context, l *Limiter, fn func(context.Context) (T, error), opts ...SubmitOption) (T, error) {
	var out T
	var op Operation
	if fn != nil {
		op = func(ctx context.Context) error {
			v, err := fn(ctx)
			out = v
			return err
		}
	}

	t := l.Submit(ctx, op, opts...)
	err := t.Wait(ctx)

	select {
	case <-t.Done():
		return out, err
	default:
		var zero T
		return zero, err
	}
}

// Close rejects queued tasks with ErrLimiterClosed and refuses new ones.
// Running tasks finish normally. Close is idempotent.
func (l *Limiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.retryTimer != nil {
		l.retryTimer.Stop()
		l.retryTimer = nil
	}

	rejected := 0
	for {
		t, ok := l.queue.PopFront()
		if !ok {
			break
		}
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		if t.settle(StateRejected, ErrLimiterClosed) {
			l.metrics.RecordRejected(l.name)
			rejected++
		}
	}
	l.abandonedWeight, l.abandonedCount = 0, 0

	l.logger.V(logging.DEFAULT).Info("Limiter closed", "rejectedTasks", rejected, "runningTasks", l.running)
	l.publishStateLocked()
	return nil
}

// checkSubmitLocked validates a new task
func (l *Limiter) checkSubmitLocked(t *Task) error {
	if l.closed {
		return ErrLimiterClosed
	}
	if t.fn == nil {
		return ErrNilOperation
	}
	return validateWeight(t.weight, l.manager)
}

// drainLocked admits as many queued tasks as the quota allows, then arms the
// retry timer if the queue is blocked with nothing of ours running. It is
// idempotent: calling it again without a state change admits nothing new.
func (l *Limiter) drainLocked() {
	for {
		l.dropAbandonedLocked()

		head, ok := l.queue.PeekFront()
		if !ok {
			break
		}

		// Total live weight waiting, never less than the head's own weight
		pending := max(l.queue.Weight()-l.abandonedWeight, head.weight)

		decision := l.manager.Admit(pending, head.weight)
		if decision != quota.Admitted {
			l.metrics.RecordDenial(l.name, decision.String())
			l.logger.V(logging.TRACE).Info("Admission denied",
				"task", head.id, "reason", decision.String(), "pendingWeight", pending)
			break
		}

		l.queue.PopFront()
		l.startLocked(head)
	}

	// Completions re-drain while tasks run; only a queue with nothing of ours
	// running needs polling to notice the rate window sliding.
	if l.queue.Len() > 0 && l.running == 0 && l.retryTimer == nil && !l.closed {
		l.retryTimer = l.clock.AfterFunc(l.retryInterval, func() {
			go l.retry()
		})
		l.logger.V(logging.TRACE).Info("Retry timer armed", "after", l.retryInterval)
	}

	l.publishStateLocked()
}

// dropAbandonedLocked pops timed-out tasks off the head of the queue
func (l *Limiter) dropAbandonedLocked() {
	for {
		head, ok := l.queue.PeekFront()
		if !ok || head.State() != StateTimedOut {
			break
		}
		l.queue.PopFront()
		l.abandonedWeight -= head.weight
		l.abandonedCount--
	}

	if l.queue.Len() == 0 {
		l.abandonedWeight, l.abandonedCount = 0, 0
	}
}

// startLocked runs an admitted task on its own goroutine
func (l *Limiter) startLocked(t *Task) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}

	t.state.Store(int32(StateRunning))
	l.running++

	waited := l.clock.Since(t.submitted)
	l.metrics.RecordAdmission(l.name, t.weight, waited)
	l.logger.V(logging.DEBUG).Info("Task admitted", "task", t.id, "weight", t.weight, "waited", waited)

	go l.run(t)
}

// run executes the task's operation and settles it
func (l *Limiter) run(t *Task) {
	err := errTaskPanicked
	defer func() {
		l.finish(t, err)
	}()

	err = t.fn(t.ctx)
}

// finish releases the task's capacity, settles it and drains again
func (l *Limiter) finish(t *Task, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rerr := l.manager.Release(); rerr != nil {
		l.logger.Error(rerr, "Quota manager out of sync", "task", t.id)
	}
	l.running--

	state := StateSucceeded
	if err != nil {
		state = StateFailed
	}
	t.settle(state, err)
	l.metrics.RecordSettled(l.name, err)
	l.logger.V(logging.DEBUG).Info("Task settled", "task", t.id, "state", state.String())

	l.drainLocked()
}

// expire abandons a task still queued when its max delay elapsed
func (l *Limiter) expire(t *Task, maxDelay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.State() != StateQueued {
		return
	}
	t.timer = nil

	// The task stays in the queue until it reaches the head
	l.abandonedWeight += t.weight
	l.abandonedCount++
	t.settle(StateTimedOut, NewQueueTimeoutError(maxDelay))

	l.metrics.RecordTimeout(l.name)
	l.logger.Info("Task timed out in queue", "task", t.id, "maxDelay", maxDelay)

	l.drainLocked()
}

// retry re-drains after the retry timer fired
func (l *Limiter) retry() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.retryTimer = nil
	if l.closed {
		return
	}
	l.drainLocked()
}

// publishStateLocked updates the state gauges
func (l *Limiter) publishStateLocked() {
	if l.metrics == nil {
		return
	}
	l.metrics.SetState(l.name, l.running, l.queue.Len()-l.abandonedCount, l.queue.Weight()-l.abandonedWeight)
}
