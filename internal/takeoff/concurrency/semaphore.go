// Package concurrency provides the process-wide counting semaphore that
// bounds concurrent external agent processes, grounded on the teacher's
// buffered-channel semaphore pattern (internal/importer/formats/ocr_engine.go,
// internal/converter/performance.go).
package concurrency

import (
	"context"
	"time"

	"github.com/abudker/takeoff24/internal/takeoff/obs/metrics"
)

// Semaphore bounds concurrent holders to a fixed capacity.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore builds a semaphore with the given capacity. Per §4.6 the
// domain fan-out uses a capacity of 3-4.
func NewSemaphore(capacity int) *Semaphore {
	return &Semaphore{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done, recording the wait
// time observed.
func (s *Semaphore) Acquire(ctx context.Context) error {
	start := time.Now()
	select {
	case s.slots <- struct{}{}:
		metrics.SemaphoreWait.Observe(time.Since(start).Seconds())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees one slot.
func (s *Semaphore) Release() {
	<-s.slots
}
