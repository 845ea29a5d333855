// Package qlimit gates caller-supplied operations behind a concurrency
// ceiling, a sliding-window rate ceiling and an optional maximum queuing delay.
//
// Operations that cannot start immediately wait in a FIFO queue and start in
// submission order as capacity frees up:
//
//	l, err := qlimit.New(
//		qlimit.WithName("api"),
//		qlimit.WithQuota(quota.Quota{
//			Concurrency: 4,
//			Interval:    time.Second,
//			Rate:        10,
//			MaxDelay:    time.Second,
//		}),
//	)
//	if err != nil {
//		return err
//	}
//	defer l.Close()
//
//	body, err := qlimit.Call(ctx, l, fetch, qlimit.WithWeight(2))
//
// A task that is still queued when MaxDelay elapses fails with
// ErrQueueTimeout and its operation never runs. Errors returned by an
// operation are passed through unchanged.
package qlimit
