// Package httputil provides shared HTTP utilities for the ScamWatch gateway.
package httputil

import (
	"context"
	"sync/atomic"
)

// Limiter caps in-flight detection requests. Scoring is CPU-bound (regex
// passes plus sparse vector math), so unbounded concurrency only queues work
// inside the process; shedding excess load keeps accepted requests fast.
type Limiter struct {
	slots chan struct{}
	shed  atomic.Int64
}

// NewLimiter creates a limiter with the given capacity.
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = 64
	}
	return &Limiter{
		slots: make(chan struct{}, capacity),
	}
}

// TryAcquire attempts to take a slot without blocking. Returns false when the
// gateway is saturated; the caller should answer 503 and let the client retry.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		l.shed.Add(1)
		return false
	}
}

// Acquire blocks until a slot is available or the context is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Must be called exactly once per successful acquire.
func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
		// Release without a matching acquire; ignore rather than block.
	}
}

// InFlight returns the number of slots currently held.
func (l *Limiter) InFlight() int {
	return len(l.slots)
}

// ShedCount returns the number of requests rejected at capacity.
func (l *Limiter) ShedCount() int64 {
	return l.shed.Load()
}

// Stats snapshots the limiter for the health endpoint.
func (l *Limiter) Stats() LimiterStats {
	return LimiterStats{
		Capacity: cap(l.slots),
		InFlight: len(l.slots),
		Shed:     l.shed.Load(),
	}
}

// LimiterStats is the JSON form of a limiter snapshot.
type LimiterStats struct {
	Capacity int   `json:"capacity"`
	InFlight int   `json:"in_flight"`
	Shed     int64 `json:"shed"`
}
