package baseworker

import (
	"context"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"
)

type BaseImpl struct {
	WorkerName    string
	firstRunDelay time.Duration
	runInterval   time.Duration
}

func NewInstance(WorkerName string, firstRunDelay, runInterval time.Duration) *BaseImpl {
	return &BaseImpl{
		WorkerName:    WorkerName,
		firstRunDelay: firstRunDelay,
		runInterval:   runInterval,
	}
}

func (i BaseImpl) GetLogger() *log.Entry {
	return log.WithField("worker_name", i.WorkerName)
}

// Run calls jobFunc after the first delay and then every interval until ctx is done
func (i BaseImpl) Run(ctx context.Context, jobFunc func(ctx context.Context)) {
	timer := time.NewTimer(i.firstRunDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			i.GetLogger().Info("worker stopped")
			return
		case <-timer.C:
			i.RunOnce(ctx, jobFunc)
			timer.Reset(i.runInterval)
		}
	}
}

// RunOnce a panicking job is logged and the worker keeps its schedule
func (i BaseImpl) RunOnce(ctx context.Context, jobFunc func(ctx context.Context)) (panicked bool) {
	logger := i.GetLogger()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			logger.
				WithField("panic_stack", string(debug.Stack())).
				Errorf("panic: (%v)", r)
		}
	}()
	jobFunc(ctx)
	logger.WithField("duration", time.Since(start).String()).Debug("job done")
	return false
}
