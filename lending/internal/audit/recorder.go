package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/internal/clock"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/pkg/circuit_breaker"
)

const (
	DefaultBufferSize = 256
	writeTimeout      = 5 * time.Second
)

// Recorder writes audit events in the background. Record never blocks and
// never fails the caller: rejected or undeliverable events are logged.
type Recorder struct {
	sink  Sink
	clock clock.Clock
	cb    circuit_breaker.CircuitBreaker
	log   *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan model.AuditEvent
	done   chan struct{}
}

func NewRecorder(sink Sink, clk clock.Clock, cb circuit_breaker.CircuitBreaker, log *zap.Logger, bufSize int) *Recorder {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	r := &Recorder{
		sink:  sink,
		clock: clk,
		cb:    cb,
		log:   log.Named("audit"),
		queue: make(chan model.AuditEvent, bufSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) Record(_ context.Context, event model.AuditEvent) {
	if event.UserID == "" {
		r.log.Warn("audit event without acting user dropped", eventFields(event)...)
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.clock.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.log.Warn("audit recorder closed, event dropped", eventFields(event)...)
		return
	}
	select {
	case r.queue <- event:
	default:
		r.log.Warn("audit buffer full, event dropped", eventFields(event)...)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for event := range r.queue {
		r.write(event)
	}
}

func (r *Recorder) write(event model.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err := r.cb.Call(func() error {
		return r.sink.Write(ctx, event)
	})
	if err != nil {
		r.log.Error("audit write", append(eventFields(event), zap.Error(err))...)
	}
}

// Close stops intake and waits until queued events are written or ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func eventFields(e model.AuditEvent) []zap.Field {
	return []zap.Field{
		zap.String("user_id", e.UserID),
		zap.String("action", string(e.Action)),
		zap.String("entity", e.Entity),
		zap.String("entity_id", e.EntityID),
	}
}
