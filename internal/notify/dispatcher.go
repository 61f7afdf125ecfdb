// Package notify delivers domain events to external sinks in the background.
// Publishing never blocks the caller: when the queue is full the event is
// dropped and counted.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/metrics"
)

const (
	maxRetries    = 3
	retryInterval = time.Second * 1
	sendTimeout   = time.Second * 10
)

type Sink interface {
	Name() string
	Send(ctx context.Context, event domain.Event) error
}

// RetryAfterError asks the dispatcher to wait before the next attempt.
type RetryAfterError struct {
	After time.Duration
	Err   error
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("retry after %s: %v", e.After, e.Err)
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}

type Options struct {
	Workers int
	Queue   int
	// RetryInterval is the base delay between attempts, multiplied by the
	// attempt number.
	RetryInterval time.Duration
}

type Dispatcher struct {
	pool          *WorkerPool
	sinks         []Sink
	retryInterval time.Duration
}

func NewDispatcher(opts Options, sinks ...Sink) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Queue <= 0 {
		opts.Queue = opts.Workers * 64
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = retryInterval
	}
	return &Dispatcher{
		pool:          NewWorkerPool(opts.Workers, opts.Queue),
		sinks:         sinks,
		retryInterval: opts.RetryInterval,
	}
}

func (d *Dispatcher) Publish(events ...domain.Event) {
	if len(d.sinks) == 0 {
		return
	}
	for _, event := range events {
		if !d.pool.TryAdd(func(ctx context.Context) error { return d.deliver(ctx, event) }) {
			metrics.NotificationsDropped.Inc()
			zap.L().Warn("notification queue full or closed, event dropped",
				zap.String("type", event.Type),
				zap.Stringer("entity_id", event.EntityID),
			)
		}
	}
}

// Close waits for queued events until ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	return d.pool.Close(ctx)
}

func (d *Dispatcher) deliver(ctx context.Context, event domain.Event) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range d.sinks {
		g.Go(func() error {
			if err := d.send(ctx, sink, event); err != nil {
				metrics.NotificationFailures.WithLabelValues(sink.Name()).Inc()
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) send(ctx context.Context, sink Sink, event domain.Event) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = sink.Send(sendCtx, event)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}

		wait := d.retryInterval * time.Duration(attempt)
		var retry *RetryAfterError
		if errors.As(err, &retry) && retry.After > 0 {
			wait = retry.After
		}
		zap.L().Warn("notification delivery failed, retrying",
			zap.String("sink", sink.Name()),
			zap.String("type", event.Type),
			zap.Int("attempt", attempt),
			zap.Duration("retryAfter", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("failed to deliver %s after %d retries: %w", event.Type, maxRetries, err)
}
