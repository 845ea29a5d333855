package qlimit

import "time"

// Stats is a point-in-time view of a limiter
type Stats struct {
	Active        int       // Running tasks counted by the quota manager, across limiters sharing it
	Running       int       // Running tasks submitted through this limiter
	Queued        int       // Tasks waiting for admission
	QueuedWeight  float64   // Total weight of waiting tasks
	WindowWeight  float64   // Weight admitted within the current rate window
	WindowSlideAt time.Time // When the oldest admission leaves the window, zero if none
}

// Stats returns the limiter's current state without changing it
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Stats{
		Active:       l.manager.ActiveCount(),
		Running:      l.running,
		Queued:       l.queue.Len() - l.abandonedCount,
		QueuedWeight: max(l.queue.Weight()-l.abandonedWeight, 0),
		WindowWeight: l.manager.WindowWeight(),
	}
	if at, ok := l.manager.NextExpiry(); ok {
		s.WindowSlideAt = at
	}
	return s
}
