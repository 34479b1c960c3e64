package lock

import (
	"context"
	"sync/atomic"
)

// Resource limits concurrent document rendering (pdf, xlsx), which is CPU and memory heavy
var Resource = NewResourceLock(2)

func InitResourceLock(ctx context.Context, slots int) {
	Resource = NewResourceLock(slots)
	go func() {
		<-ctx.Done()
		Resource.Stop()
	}()
}

/*
Usage:

	if !lock.Resource.Acquire(ctx) {
		return ctx.Err()
	}
	defer lock.Resource.Release()
*/

type ResourceLock struct {
	slots     chan struct{}
	stopCh    chan struct{}
	stopped   atomic.Bool
	waitCount int32
}

func NewResourceLock(slots int) *ResourceLock {
	if slots < 1 {
		slots = 1
	}
	return &ResourceLock{
		slots:  make(chan struct{}, slots),
		stopCh: make(chan struct{}),
	}
}

// Acquire blocks until a slot is free, false when ctx is done or the lock is stopped
func (c *ResourceLock) Acquire(ctx context.Context) bool {
	atomic.AddInt32(&c.waitCount, 1)
	defer atomic.AddInt32(&c.waitCount, -1)
	if c.stopped.Load() {
		return false
	}
	select {
	case c.slots <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	case <-c.stopCh:
		return false
	}
}

func (c *ResourceLock) Release() {
	select {
	case <-c.slots:
	default:
	}
}

// Stop wakes every waiting goroutine, later Acquire calls fail
func (c *ResourceLock) Stop() {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
}

func (c *ResourceLock) WaitCount() int {
	return int(atomic.LoadInt32(&c.waitCount))
}
