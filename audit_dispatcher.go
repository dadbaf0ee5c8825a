package recipeauth

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// auditDispatcher hands events to the sink on a single goroutine. Account
// operations only wait on it when DropIfFull is off and the queue is full.
type auditDispatcher struct {
	sink       AuditSink
	log        *zap.Logger
	dropIfFull bool

	mu      sync.RWMutex
	closed  bool
	queue   chan AuditEvent
	drained chan struct{}

	dropped atomic.Uint64
}

// newAuditDispatcher returns nil when auditing is disabled. Every method
// accepts a nil receiver.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink, log *zap.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = AuditSinkFunc(discardAudit)
	}
	if log == nil {
		log = zap.NewNop()
	}

	d := &auditDispatcher{
		sink:       sink,
		log:        log,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		drained:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	defer close(d.drained)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *auditDispatcher) deliver(event AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("audit sink panicked",
				zap.String("event", event.Type),
				zap.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit describes the emit operation and its observable behavior.
//
// Emit assigns an event ID when missing and queues the event. After Close it
// does nothing. With DropIfFull a full queue drops and counts the event;
// otherwise Emit waits for room or for ctx to end.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	}
}

// Close stops accepting events and returns once the queue is delivered.
// It is safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.drained
}

// Dropped counts events discarded because the queue was full.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
