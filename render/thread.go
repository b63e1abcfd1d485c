package render

import (
	"errors"
	"runtime"
	"sync"
)

// ErrThreadClosed is returned by Thread.Do after Close.
var ErrThreadClosed = errors.New("render: thread closed")

// Thread runs functions on a single goroutine locked to its OS thread.
// Graphics contexts bound to a thread are created and used through Do.
//
// The queue is unbounded, so Post never blocks, including from functions
// already running on the thread.
//
// Thread implements the loader Dispatcher interface.
type Thread struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	done    chan struct{}
}

// NewThread starts a locked goroutine.
func NewThread() *Thread {
	t := &Thread{done: make(chan struct{})}
	t.cond = sync.NewCond(&t.mu)
	go t.loop()
	return t
}

func (t *Thread) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.done)

	for {
		t.mu.Lock()
		for len(t.pending) == 0 && !t.closed {
			t.cond.Wait()
		}
		batch := t.pending
		t.pending = nil
		closed := t.closed
		t.mu.Unlock()

		if len(batch) == 0 && closed {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

// Do runs fn on the thread and waits for it to return. It must not be
// called from a function running on the thread; use Post there.
func (t *Thread) Do(fn func() error) error {
	errc := make(chan error, 1)
	if !t.enqueue(func() { errc <- fn() }) {
		return ErrThreadClosed
	}
	return <-errc
}

// Post queues fn to run on the thread without waiting. Functions posted
// after Close are dropped.
func (t *Thread) Post(fn func()) {
	if !t.enqueue(fn) {
		slogger().Warn("render: post on closed thread dropped")
	}
}

func (t *Thread) enqueue(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.pending = append(t.pending, fn)
	t.cond.Signal()
	return true
}

// Close runs the queued functions, then stops the thread. It is safe to
// call more than once, but not from a function running on the thread.
func (t *Thread) Close() {
	t.mu.Lock()
	t.closed = true
	t.cond.Signal()
	t.mu.Unlock()
	<-t.done
}

// FrameQueue collects functions posted from any goroutine and runs them
// when the owner of the graphics context calls Drain, typically once per
// frame.
//
// FrameQueue implements the loader Dispatcher interface.
type FrameQueue struct {
	mu      sync.Mutex
	pending []func()
}

// Post queues fn for the next Drain.
func (q *FrameQueue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Drain runs every queued function in posting order and returns how many
// ran. Functions posted during Drain run on the next call.
func (q *FrameQueue) Drain() int {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Len returns the number of queued functions.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
