package lock

import (
	"context"
	"sync"
	"time"
)

// keyed holds one release channel per locked key, waiters block on it
var keyed = struct {
	sync.Mutex
	held map[string]chan struct{}
}{held: map[string]chan struct{}{}}

func tryLock(key string) (release chan struct{}, acquired bool) {
	keyed.Lock()
	defer keyed.Unlock()
	if ch, ok := keyed.held[key]; ok {
		return ch, false
	}
	ch := make(chan struct{})
	keyed.held[key] = ch
	return ch, true
}

func unlock(key string) {
	keyed.Lock()
	ch := keyed.held[key]
	delete(keyed.held, key)
	keyed.Unlock()
	close(ch)
}

// WithDelay runs safeCode while holding key, waiting up to wait for a concurrent holder.
// success is false when the key could not be taken in time.
func WithDelay(ctx context.Context, key string, wait time.Duration, safeCode func() error) (success bool, err error) {
	timeout := time.NewTimer(wait)
	defer timeout.Stop()
	for {
		release, acquired := tryLock(key)
		if acquired {
			break
		}
		select {
		case <-release:
		case <-timeout.C:
			return false, nil
		case <-ctx.Done():
			return false, nil
		}
	}
	defer unlock(key)
	return true, safeCode()
}
