package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/deskline/support-tickets/internal/config"
	"github.com/deskline/support-tickets/internal/observability"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("worker queue is full")
	// ErrPoolClosed is returned by Submit after Shutdown started.
	ErrPoolClosed = errors.New("worker pool is closed")
)

type task struct {
	name string
	fn   func(context.Context) error
}

// Pool runs background work, such as notification delivery, on a fixed set of
// goroutines fed by a bounded queue. Tasks outlive the request that queued them.
type Pool struct {
	tasks   chan task
	logger  *zap.Logger
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	closed  bool
}

// NewPool starts cfg.Workers goroutines.
func NewPool(cfg config.NotificationConfig, logger *zap.Logger, metrics *observability.Metrics) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:   make(chan task, queueSize),
		logger:  logger,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
	p.idle = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

// Submit queues fn without blocking the caller.
func (p *Pool) Submit(name string, fn func(context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task{name: name, fn: fn}:
		p.pending++
		return nil
	default:
		return ErrQueueFull
	}
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.pending > 0 {
		p.idle.Wait()
	}
}

// Shutdown stops accepting tasks and drains the queue. When ctx expires first
// the context handed to running tasks is cancelled and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(t)
		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}
}

func (p *Pool) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("background task panicked",
				zap.String("task", t.name),
				zap.String("panic", fmt.Sprint(r)),
				zap.Stack("stack"))
			p.metrics.RecordTaskFailure(t.name)
		}
	}()
	if err := t.fn(p.ctx); err != nil {
		p.logger.Error("background task failed", zap.String("task", t.name), zap.Error(err))
		p.metrics.RecordTaskFailure(t.name)
	}
}
