package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// WorkerPool runs queued tasks on a fixed number of goroutines.
type WorkerPool struct {
	pool   chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewWorkerPool(workers, queue int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	wp := &WorkerPool{
		pool:   make(chan Task, queue),
		ctx:    ctx,
		cancel: cancel,
	}

	wp.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.pool {
		if err := task(wp.ctx); err != nil {
			zap.L().Error("Task execution failed", zap.Error(err))
		}
	}
}

// TryAdd queues task without blocking and reports whether it was accepted.
// A closed pool accepts nothing.
func (wp *WorkerPool) TryAdd(task Task) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	select {
	case wp.pool <- task:
		return true
	default:
		return false
	}
}

// Close stops accepting tasks and waits for the queue to drain. When ctx
// expires first, running tasks are cancelled.
func (wp *WorkerPool) Close(ctx context.Context) error {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.pool)
	}
	wp.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.cancel()
		return nil
	case <-ctx.Done():
		wp.cancel()
		<-done
		return ctx.Err()
	}
}
