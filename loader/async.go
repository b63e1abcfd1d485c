package loader

import (
	"context"
	"sync/atomic"

	"github.com/gogpu/imgload/pixbuf"
)

// Task is a handle to an asynchronous load.
type Task struct {
	req    Request
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	cancelled atomic.Bool

	buf *pixbuf.Buffer
	err error
}

// Request returns the request the task performs.
func (t *Task) Request() Request { return t.req }

// Cancel aborts the load. In-flight downloads are interrupted and the
// completion callback will not run. Cancel after completion only suppresses
// a callback that has not been delivered yet.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// Done is closed once the load has finished, successfully or not.
// The completion callback may still be pending on the dispatcher.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the load has finished and returns its result.
// A cancelled task returns context.Canceled.
func (t *Task) Wait() (*pixbuf.Buffer, error) {
	<-t.done
	if t.cancelled.Load() {
		return nil, context.Canceled
	}
	return t.buf, t.err
}

// LoadAsync performs req on a worker goroutine and returns immediately.
//
// At most Workers() loads run at once; further tasks wait for a slot.
// onComplete, if not nil, receives the result exactly once unless the task
// is cancelled first. It runs through the configured Dispatcher, or on the
// worker goroutine when there is none. The buffer passed to onComplete is
// owned by the callback.
func (l *Loader) LoadAsync(ctx context.Context, req Request, onComplete func(*pixbuf.Buffer, error)) *Task {
	tctx, cancel := context.WithCancel(ctx)
	t := &Task{
		req:    req,
		ctx:    tctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go l.run(t, onComplete)
	return t
}

func (l *Loader) run(t *Task, onComplete func(*pixbuf.Buffer, error)) {
	defer t.cancel()

	if err := l.sem.Acquire(t.ctx, 1); err != nil {
		t.err = err
	} else {
		t.buf, t.err = l.Load(t.ctx, t.req)
		l.sem.Release(1)
	}
	if t.err != nil {
		slogger().Debug("loader: async load failed", "request", t.req.String(), "err", t.err)
	}
	close(t.done)

	if onComplete == nil || t.cancelled.Load() {
		return
	}
	buf, err := t.buf, t.err
	deliver := func() {
		if t.cancelled.Load() {
			return
		}
		onComplete(buf, err)
	}
	if l.dispatcher != nil {
		l.dispatcher.Post(deliver)
		return
	}
	deliver()
}
