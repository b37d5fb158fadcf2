package concurrency

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemaphore_BoundsConcurrency(t *testing.T) {
	sem := NewSemaphore(2)
	var current, maxObserved int32

	done := make(chan struct{})
	for i := 0; i < 6; i++ {
		go func() {
			_ = sem.Acquire(context.Background())
			n := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&maxObserved)
				if n <= old || atomic.CompareAndSwapInt32(&maxObserved, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			sem.Release()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 6; i++ {
		<-done
	}
	assert.LessOrEqual(t, int(maxObserved), 2)
}

func TestSemaphore_AcquireRespectsContextCancellation(t *testing.T) {
	sem := NewSemaphore(1)
	require := assert.New(t)
	require.NoError(sem.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := sem.Acquire(ctx)
	require.Error(err)
}
