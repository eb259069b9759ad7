// Package outbox persists editor mutations to a store in the background.
//
// The editor updates its in-memory state first and enqueues the matching
// store mutation here. A single worker applies mutations in enqueue order, so
// a create always reaches the store before a later update of the same entity.
// Failures are logged and reported to listeners; they are not retried and the
// in-memory state is not rolled back.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/ratetable/internal/notifier"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// Mutation kinds.
const (
	KindCreateColumn   = "create_column"
	KindUpdateColumn   = "update_column"
	KindDeleteColumn   = "delete_column"
	KindReplaceColumns = "replace_columns"
	KindCreateRow      = "create_row"
	KindUpdateRow      = "update_row"
	KindDeleteRow      = "delete_row"
)

// Mutation is one pending store write.
type Mutation struct {
	Kind string
	ID   string
	// Seq is assigned by Enqueue and increases by one per mutation.
	Seq   int
	Apply func(ctx context.Context, store core.Store) error
}

// Stats counts mutations over the outbox's lifetime.
type Stats struct {
	Issued  int `json:"issued"`
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Option configures an Outbox.
type Option func(*Outbox)

// WithLogger sets the logger for failed mutations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Outbox) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNotifier broadcasts an event after each applied or failed mutation.
func WithNotifier(n *notifier.Notifier) Option {
	return func(o *Outbox) {
		o.notifier = n
	}
}

// WithMetrics records mutation counters.
func WithMetrics(m *Metrics) Option {
	return func(o *Outbox) {
		o.metrics = m
	}
}

// WithDrainTimeout bounds how long Run keeps applying queued mutations after
// its context is cancelled.
func WithDrainTimeout(d time.Duration) Option {
	return func(o *Outbox) {
		if d > 0 {
			o.drainTimeout = d
		}
	}
}

// Outbox is an ordered, single-worker queue of store mutations.
type Outbox struct {
	store        core.Store
	logger       *slog.Logger
	notifier     *notifier.Notifier
	metrics      *Metrics
	drainTimeout time.Duration

	mu      sync.Mutex
	queue   []Mutation
	busy    bool
	waiters []chan struct{}
	stats   Stats
	signal  chan struct{}
}

// New creates an Outbox writing to store.
func New(store core.Store, opts ...Option) *Outbox {
	o := &Outbox{
		store:        store,
		logger:       slog.New(slog.DiscardHandler),
		drainTimeout: 10 * time.Second,
		signal:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue appends m to the queue. It never blocks on the store.
func (o *Outbox) Enqueue(m Mutation) {
	o.mu.Lock()
	o.stats.Issued++
	m.Seq = o.stats.Issued
	o.queue = append(o.queue, m)
	o.metrics.setDepth(len(o.queue))
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default:
	}
}

// Stats returns a snapshot of the counters.
func (o *Outbox) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.stats
	s.Pending = len(o.queue)
	if o.busy {
		s.Pending++
	}
	return s
}

// Idle reports whether no mutation is queued or in flight.
func (o *Outbox) Idle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.idleLocked()
}

func (o *Outbox) idleLocked() bool {
	return len(o.queue) == 0 && !o.busy
}

// Flush blocks until every mutation enqueued so far has been attempted or ctx
// is done. A worker must be running.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	if o.idleLocked() {
		o.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	o.waiters = append(o.waiters, ch)
	o.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush outbox: %w", ctx.Err())
	}
}

// Run applies queued mutations until ctx is cancelled, then keeps draining
// the queue for at most the drain timeout.
func (o *Outbox) Run(ctx context.Context) error {
	for {
		o.drain(ctx)
		select {
		case <-o.signal:
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.drainTimeout)
			defer cancel()
			o.drain(drainCtx)
			if !o.Idle() {
				return fmt.Errorf("outbox: %d mutations not persisted", o.Stats().Pending)
			}
			return nil
		}
	}
}

func (o *Outbox) drain(ctx context.Context) {
	for {
		o.mu.Lock()
		if len(o.queue) == 0 || ctx.Err() != nil {
			if !o.busy && len(o.queue) == 0 {
				o.releaseWaitersLocked()
			}
			o.mu.Unlock()
			return
		}
		m := o.queue[0]
		o.queue = o.queue[1:]
		o.busy = true
		o.metrics.setDepth(len(o.queue))
		o.mu.Unlock()

		o.apply(ctx, m)

		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}
}

func (o *Outbox) releaseWaitersLocked() {
	for _, ch := range o.waiters {
		close(ch)
	}
	o.waiters = nil
}

func (o *Outbox) apply(ctx context.Context, m Mutation) {
	start := time.Now()
	err := m.Apply(ctx, o.store)
	elapsed := time.Since(start).Seconds()

	o.mu.Lock()
	if err != nil {
		o.stats.Failed++
	} else {
		o.stats.Applied++
	}
	o.mu.Unlock()

	if err != nil {
		o.metrics.observe(m.Kind, "failed", elapsed)
		o.logger.Error("persist mutation", "kind", m.Kind, "id", m.ID, "seq", m.Seq, "error", err)
		o.broadcast(notifier.Event{Kind: notifier.KindError, ID: m.ID, Message: err.Error()})
		return
	}

	o.metrics.observe(m.Kind, "applied", elapsed)
	o.logger.Debug("mutation persisted", "kind", m.Kind, "id", m.ID, "seq", m.Seq)
	o.broadcast(notifier.Event{Kind: eventKind(m.Kind), ID: m.ID})
}

func (o *Outbox) broadcast(ev notifier.Event) {
	if o.notifier != nil {
		o.notifier.Broadcast(ev)
	}
}

func eventKind(kind string) string {
	switch kind {
	case KindCreateColumn, KindUpdateColumn, KindDeleteColumn, KindReplaceColumns:
		return notifier.KindColumns
	default:
		return notifier.KindRows
	}
}
