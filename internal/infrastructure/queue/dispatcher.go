// Package queue applies billing events asynchronously on a fixed set of
// sharded workers.
package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/metrics"
)

const (
	defaultWorkers  = 4
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
	channelBuffer   = 256
)

// ErrClosed is returned by Enqueue once Shutdown has started.
var ErrClosed = errors.New("queue: dispatcher closed")

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithRetry sets how many times an event is applied before it is abandoned,
// and the delay before the first retry. The delay doubles on every retry.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		if backoff >= 0 {
			d.backoff = backoff
		}
	}
}

// Dispatcher routes billing events to a fixed set of workers using consistent
// hashing on the event's shard key, guaranteeing per-customer ordering.
type Dispatcher struct {
	workers   []chan domain.BillingEvent
	processor ports.BillingEventProcessor
	log       zerolog.Logger
	attempts  int
	backoff   time.Duration
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.BillingEventProcessor, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.BillingEvent, numWorkers),
		processor: processor,
		log:       log.With().Str("component", "billing_dispatcher").Logger(),
		attempts:  defaultAttempts,
		backoff:   defaultBackoff,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.BillingEvent, channelBuffer)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches all worker goroutines. Cancelling ctx stops the workers
// without draining; use Shutdown for a graceful stop.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue sends an event to the worker responsible for its shard key.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(event domain.BillingEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	idx := d.shardIndex(event.ShardKey())
	d.workers[idx] <- event
	metrics.BillingQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	return nil
}

// Shutdown stops accepting events and waits until the workers have applied
// everything already queued. It returns ctx.Err() if ctx ends first; the
// caller should then cancel the context given to Start.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a shard key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.BillingEvent) {
	defer d.wg.Done()
	depth := metrics.BillingQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.process(ctx, id, event)
		}
	}
}

// process applies one event, retrying with backoff. After the last failed
// attempt the event is handed back to the processor through Abandon.
func (d *Dispatcher) process(ctx context.Context, id int, event domain.BillingEvent) {
	delay := d.backoff
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = d.processor.Apply(ctx, event); err == nil {
			return
		}
		d.log.Warn().Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Int("worker_id", id).
			Int("attempt", attempt).
			Msg("billing event processing failed")

		if attempt == d.attempts {
			break
		}
		select {
		case <-ctx.Done():
			d.processor.Abandon(ctx, event, errors.Join(err, ctx.Err()))
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
	d.processor.Abandon(ctx, event, err)
}
