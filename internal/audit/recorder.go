package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

// Sink persists or forwards one entry.  repository.AuditRepo and
// service.AuditPublisher both satisfy it.
type Sink interface {
	Store(ctx context.Context, e model.AuditEntry) error
}

// Options tune a Recorder.  Zero values fall back to defaults.
type Options struct {
	Workers      int
	QueueSize    int
	StoreTimeout time.Duration
	// OnDrop is called once per entry that never reached the sink.
	OnDrop func()
}

// Recorder delivers entries to a Sink from a fixed pool of workers fed by a
// bounded queue.  Record never blocks; a full queue or a failing sink loses
// the entry after logging it.
type Recorder struct {
	sink    Sink
	log     logrus.FieldLogger
	timeout time.Duration
	onDrop  func()

	mu     sync.RWMutex
	closed bool
	queue  chan model.AuditEntry
	wg     sync.WaitGroup
	once   sync.Once

	dropped atomic.Uint64
}

// NewRecorder starts the worker pool.  Call Close to drain it.
func NewRecorder(sink Sink, log logrus.FieldLogger, opts Options) *Recorder {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Recorder{
		sink:    sink,
		log:     log.WithField("component", "audit"),
		timeout: opts.StoreTimeout,
		onDrop:  opts.OnDrop,
		queue:   make(chan model.AuditEntry, opts.QueueSize),
	}
	r.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go r.work()
	}
	return r
}

// Record enqueues e and reports whether it was accepted.
func (r *Recorder) Record(e model.AuditEntry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(e, "recorder closed")
		return false
	}
	select {
	case r.queue <- e:
		return true
	default:
		r.drop(e, "queue full")
		return false
	}
}

// Dropped returns how many entries were lost so far.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Close stops accepting entries and waits until the queued ones are stored
// or ctx expires.
func (r *Recorder) Close(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) work() {
	defer r.wg.Done()
	for e := range r.queue {
		r.store(e)
	}
}

func (r *Recorder) store(e model.AuditEntry) {
	defer func() {
		if p := recover(); p != nil {
			r.drop(e, "sink panic")
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.sink.Store(ctx, e); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"endpoint": e.Endpoint,
			"method":   e.Method,
			"status":   e.ResponseStatus,
		}).Error("audit entry not stored")
		r.count()
	}
}

func (r *Recorder) drop(e model.AuditEntry, reason string) {
	r.log.WithFields(logrus.Fields{
		"endpoint": e.Endpoint,
		"method":   e.Method,
		"reason":   reason,
	}).Warn("audit entry dropped")
	r.count()
}

func (r *Recorder) count() {
	r.dropped.Add(1)
	if r.onDrop != nil {
		r.onDrop()
	}
}
