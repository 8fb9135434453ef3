// Package queue provides the debounced write queue that serializes outgoing
// remote writes. Mutations to the same logical key within the debounce
// window coalesce into a single task carrying the latest state; fired tasks
// are drained strictly FIFO by a single worker, so at most one remote write
// is in flight at any time.
package queue

import (
	"context"
	"log"
	"os"
	"sync"
	"time"
)

// Task is a unit of sync work. Its error is caught and logged at the worker
// boundary and never reaches the caller that enqueued it; the local apply
// that triggered the push already succeeded.
type Task func(ctx context.Context) error

// Queue is a debounced, single-worker task queue.
type Queue struct {
	mu          sync.Mutex
	timers      map[string]*time.Timer
	outstanding int // pending timers + queued + executing tasks
	closed      bool

	run    chan Task
	done   chan struct{}
	wg     sync.WaitGroup
	logger *log.Logger
}

// New creates a Queue and starts its worker.
//
// If logger is nil, a default logger writing to stderr is used.
func New(logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.New(os.Stderr, "[syncqueue] ", log.LstdFlags)
	}
	q := &Queue{
		timers: make(map[string]*time.Timer),
		run:    make(chan Task, 256),
		done:   make(chan struct{}),
		logger: logger,
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Enqueue schedules task to run after the debounce window for key elapses.
// If a not-yet-fired timer exists for key, it is cancelled and its task
// discarded; the new task and window replace it. An empty key bypasses
// debouncing and appends the task to the run queue immediately.
func (q *Queue) Enqueue(key string, debounce time.Duration, task Task) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}

	if key == "" {
		q.outstanding++
		q.mu.Unlock()
		q.run <- task
		return
	}

	if t, ok := q.timers[key]; ok && t.Stop() {
		// Superseded before firing: the captured task is dropped.
		q.outstanding--
	}
	q.outstanding++
	q.timers[key] = time.AfterFunc(debounce, func() {
		q.fire(key, task)
	})
	q.mu.Unlock()
}

// fire moves a debounced task onto the run queue once its timer elapses.
func (q *Queue) fire(key string, task Task) {
	q.mu.Lock()
	delete(q.timers, key)
	if q.closed {
		q.outstanding--
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()
	q.run <- task
}

// worker drains the run queue one task at a time, in submission order.
func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case task := <-q.run:
			q.execute(task)
		case <-q.done:
			// Tasks already handed off still run to completion.
			for {
				select {
				case task := <-q.run:
					q.execute(task)
				default:
					return
				}
			}
		}
	}
}

// execute runs a single task, catching its failure. A failed push is not
// retried here; the next mutation to the same entity re-enqueues a fresh
// push carrying current state.
func (q *Queue) execute(task Task) {
	if err := task(context.Background()); err != nil {
		q.logger.Printf("sync task failed: %v", err)
	}
	q.mu.Lock()
	q.outstanding--
	q.mu.Unlock()
}

// Drain blocks until every pending timer has fired and every queued task has
// finished executing, or ctx is cancelled. Hosts call it on suspend; tests
// use it to observe the queue's quiesced state.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		q.mu.Lock()
		n := q.outstanding
		q.mu.Unlock()
		if n == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Clear cancels all pending timers and drops queued tasks that have not yet
// started executing. A task already picked up by the worker finishes.
func (q *Queue) Clear() {
	q.mu.Lock()
	for key, t := range q.timers {
		if t.Stop() {
			q.outstanding--
		}
		delete(q.timers, key)
	}
	q.mu.Unlock()

	for {
		select {
		case <-q.run:
			q.mu.Lock()
			q.outstanding--
			q.mu.Unlock()
		default:
			return
		}
	}
}

// Close cancels pending timers, lets already-queued tasks finish, and stops
// the worker. The queue accepts no further work after Close.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for key, t := range q.timers {
		if t.Stop() {
			q.outstanding--
		}
		delete(q.timers, key)
	}
	q.mu.Unlock()

	close(q.done)
	q.wg.Wait()
}
