// Package worker runs fire-and-forget persistence tasks on a bounded pool so
// a slow or failing store can never block or break a chat response. Task
// errors land in the log sink only.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultQueueSize = 64
	DefaultWorkers   = 2

	taskTimeout = 3 * time.Second
)

// Task is a named unit of background work. The context carries the per-task
// timeout.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool executes submitted tasks on a fixed set of workers.
type Pool struct {
	tasks   chan Task
	wg      sync.WaitGroup
	log     *slog.Logger
	dropped atomic.Int64

	// mu guards closed so a Submit racing Close drops instead of sending
	// on a closed channel.
	mu     sync.Mutex
	closed bool
}

// NewPool starts a pool with the given queue size and worker count.
// Non-positive arguments fall back to the defaults. A nil logger uses the
// process default.
func NewPool(queueSize, workers int, log *slog.Logger) *Pool {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Pool{
		tasks: make(chan Task, queueSize),
		log:   log,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

// Submit enqueues a task without blocking. When the queue is full or the pool
// is closed the task is dropped and counted; losing a learning update is
// acceptable, delaying a response is not.
func (p *Pool) Submit(t Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.dropped.Add(1)
		p.log.Warn("background task dropped, pool closed", "task", t.Name)
		return false
	}
	select {
	case p.tasks <- t:
		return true
	default:
		p.dropped.Add(1)
		p.log.Warn("background task dropped, queue full", "task", t.Name)
		return false
	}
}

// Dropped returns how many tasks were rejected due to a full queue.
func (p *Pool) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting tasks and waits for queued ones to finish. Submit
// after Close is safe and reports the task as dropped.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.execute(t)
	}
}

func (p *Pool) execute(t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("background task panicked", "task", t.Name, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if err := t.Run(ctx); err != nil {
		p.log.Warn("background task failed", "task", t.Name, "err", err)
	}
}
