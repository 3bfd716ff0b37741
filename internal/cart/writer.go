package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/marketplace-cart/internal/port"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nikolayk812/marketplace-cart/internal/cart"

// snapshot is one queued persistence step: the full cart, or removal of the key.
type snapshot struct {
	value  string
	remove bool
}

// writer persists snapshots from a single goroutine.
// At most one write is in flight and at most one snapshot is queued;
// a newer snapshot replaces a queued one that has not started.
type writer struct {
	kv     port.KVStore
	key    string
	log    logrus.FieldLogger
	tracer trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	pending *snapshot
	busy    bool
	closed  bool
	err     error
	// idle is closed whenever pending is nil and busy is false.
	idle chan struct{}
}

func newWriter(kv port.KVStore, key string, log logrus.FieldLogger) *writer {
	ctx, cancel := context.WithCancel(context.Background())

	idle := make(chan struct{})
	close(idle)

	w := &writer{
		kv:     kv,
		key:    key,
		log:    log,
		tracer: otel.Tracer(tracerName),
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		idle:   idle,
	}

	go w.run()

	return w
}

func (w *writer) schedule(value string) {
	w.enqueue(snapshot{value: value})
}

func (w *writer) scheduleRemove() {
	w.enqueue(snapshot{remove: true})
}

func (w *writer) enqueue(next snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.log.Warn("cart writer closed, snapshot dropped")
		return
	}

	switch {
	case w.pending != nil:
		w.log.Debug("queued snapshot superseded")
	case !w.busy:
		w.idle = make(chan struct{})
	}
	w.pending = &next

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	defer w.discard()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.wake:
		}

		for w.ctx.Err() == nil && w.next() {
		}
	}
}

// discard settles the queue when run stops: a snapshot still queued is dropped
// and idle is closed, so flush never waits on a stopped writer.
func (w *writer) discard() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil && !w.busy {
		return
	}

	if w.pending != nil {
		w.log.Warn("cart writer stopped, snapshot dropped")
	}
	w.pending = nil
	w.busy = false
	close(w.idle)
}

// next writes the queued snapshot, if any, and reports whether it did.
func (w *writer) next() bool {
	w.mu.Lock()
	if w.pending == nil {
		if w.busy {
			w.busy = false
			close(w.idle)
		}
		w.mu.Unlock()
		return false
	}

	snap := *w.pending
	w.pending = nil
	w.busy = true
	w.mu.Unlock()

	err := w.write(snap)

	w.mu.Lock()
	if err != nil && w.err == nil {
		w.err = err
	}
	w.mu.Unlock()

	return true
}

func (w *writer) write(snap snapshot) error {
	ctx, span := w.tracer.Start(w.ctx, "cart.persist", trace.WithAttributes(
		attribute.String("cart.storage_key", w.key),
		attribute.Int("cart.snapshot_bytes", len(snap.value)),
		attribute.Bool("cart.remove", snap.remove),
	))
	defer span.End()

	var err error
	if snap.remove {
		if err = w.kv.Delete(ctx, w.key); err != nil {
			err = fmt.Errorf("kv.Delete: %w", err)
		}
	} else {
		if err = w.kv.Set(ctx, w.key, snap.value); err != nil {
			err = fmt.Errorf("kv.Set: %w", err)
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.log.WithError(err).WithField("key", w.key).Error("persist cart snapshot")
		return err
	}

	return nil
}

func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.err
	w.err = nil

	return err
}

// close is idempotent. Snapshots queued before close are written;
// later ones are dropped. A write still in flight when ctx expires is cancelled.
func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	flushErr := w.flush(ctx)

	w.cancel()

	select {
	case <-w.done:
	case <-ctx.Done():
		if flushErr == nil {
			flushErr = ctx.Err()
		}
	}

	return flushErr
}
