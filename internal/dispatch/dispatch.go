// Package dispatch runs fire-and-forget side effects (notifications,
// audit writes) on a small worker pool, decoupled from the database
// transaction that triggered them. Delivery is at-most-once: tasks are
// dropped with a log line when the queue is full, and task failures
// never reach the caller.
package dispatch

import (
	"sync"

	"expenseflow/internal/logger"
)

// Task is a unit of deferred work.
type Task func()

// Dispatcher owns the task queue and worker pool.
type Dispatcher struct {
	tasks chan Task
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a dispatcher with the given queue capacity and starts the
// worker goroutines.
func New(queueSize, workers int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 2
	}

	d := &Dispatcher{tasks: make(chan Task, queueSize)}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for task := range d.tasks {
		d.run(task)
	}
}

func (d *Dispatcher) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorw("panic in dispatched task", "panic", r)
		}
	}()
	task()
}

// Submit enqueues a task. Returns false if the dispatcher is closed or
// the queue is full; the task is dropped in both cases.
func (d *Dispatcher) Submit(task Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		logger.Get().Warn("task submitted after dispatcher close, dropping")
		return false
	}
	select {
	case d.tasks <- task:
		return true
	default:
		logger.Get().Warn("dispatch queue full, dropping task")
		return false
	}
}

// Close stops accepting tasks and blocks until queued tasks finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
}
