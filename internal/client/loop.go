package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Loop runs posted tasks one at a time on a single goroutine. Everything that touches the
// battle view or the screen runs as a Loop task.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewLoop creates a Loop whose queue holds up to buffer pending tasks.
//
// Precondition: buffer >= 1; smaller values are raised to 1.
func NewLoop(buffer int, logger *zap.Logger) *Loop {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		tasks:  make(chan func(), buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn. It blocks while the queue is full.
//
// Postcondition: Returns false, dropping fn, once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run executes tasks in posting order until ctx is done. Tasks still queued at that point
// are discarded.
//
// Precondition: Run is called at most once.
// Postcondition: Returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			if n := len(l.tasks); n > 0 {
				l.logger.Debug("discarding queued tasks", zap.Int("count", n))
			}
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// After posts fn to the loop once d has elapsed. Cancelling prevents fn from running even
// when the timer already fired and fn is waiting in the queue.
func (l *Loop) After(d time.Duration, fn func()) (cancel func()) {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}
