package qlimit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// Operation is the work a task runs once admitted
type Operation func(ctx context.Context) error

// State is the lifecycle position of a task
type State int32

const (
	// StateQueued means the task waits for admission
	StateQueued State = iota
	// StateRunning means the task was admitted and its operation is running
	StateRunning
	// StateSucceeded means the operation returned nil
	StateSucceeded
	// StateFailed means the operation returned an error or panicked
	StateFailed
	// StateTimedOut means the task was abandoned after the quota's max delay
	StateTimedOut
	// StateRejected means the task was refused at submission or by Close
	StateRejected
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsFinal reports whether the state is terminal
func (s State) IsFinal() bool {
	return s >= StateSucceeded
}

// Task is the handle of a submitted operation. It settles exactly once.
type Task struct {
	id        string
	ctx       context.Context
	fn        Operation
	weight    float64
	submitted time.Time

	// timer enforces the max delay; guarded by the limiter's mutex
	timer clock.Timer

	state atomic.Int32
	err   error // written once before done is closed
	done  chan struct{}
}

func newTask(ctx context.Context, fn Operation, weight float64, now time.Time) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Task{
		id:        uuid.NewString(),
		ctx:       ctx,
		fn:        fn,
		weight:    weight,
		submitted: now,
		done:      make(chan struct{}),
	}
}

// ID returns the task's unique identifier, as used in logs
func (t *Task) ID() string {
	return t.id
}

// Weight returns the task's weight
func (t *Task) Weight() float64 {
	return t.weight
}

// SubmittedAt returns when the task was submitted
func (t *Task) SubmittedAt() time.Time {
	return t.submitted
}

// State returns the task's current state
func (t *Task) State() State {
	return State(t.state.Load())
}

// Done returns a channel closed once the task settles
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's result once settled, nil before that
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task settles and returns its result.
//
// If ctx ends first Wait returns ctx.Err(); the task itself is not affected
// and keeps its place in the queue.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	default:
	}

	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settle moves the task to a final state. Later calls are ignored.
func (t *Task) settle(state State, err error) bool {
	for {
		current := State(t.state.Load())
		if current.IsFinal() {
			return false
		}
		if t.state.CompareAndSwap(int32(current), int32(state)) {
			break
		}
	}
	t.err = err
	close(t.done)
	return true
}
