package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	auditDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/audit"
	"github.com/frahmantamala/fleet-backoffice/internal/core/metrics"
)

type Store interface {
	Save(ctx context.Context, row *auditDatamodel.AuditLog) error
}

type job struct {
	ctx   context.Context
	entry Entry
}

type Worker struct {
	ID         int
	WorkerPool chan chan job
	JobChannel chan job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case j := <-w.JobChannel:
				processFunc(j)
			case <-ctx.Done():
				w.Logger.Debug("audit worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	MaxWorkers   int
	QueueSize    int
	WriteTimeout time.Duration
}

// Dispatcher persists audit entries on a bounded queue drained by a fixed
// worker pool. Enqueue never blocks the caller.
type Dispatcher struct {
	store        Store
	logger       *slog.Logger
	writeTimeout time.Duration

	jobQueue   chan job
	workerPool chan chan job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	intake    sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewDispatcher(store Store, config Config, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}

	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		store:        store,
		logger:       logger,
		writeTimeout: writeTimeout,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan job, queueSize),
		workerPool: make(chan chan job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.start()

	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("audit worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for j := range d.jobQueue {
		metrics.AuditQueueDepth.Set(float64(len(d.jobQueue)))

		select {
		case jobChannel := <-d.workerPool:
			select {
			case jobChannel <- j:
			case <-d.ctx.Done():
				d.abandon(j)
				return
			}
		case <-d.ctx.Done():
			d.abandon(j)
			return
		}
	}

	// Queue closed and drained; idle workers can exit.
	d.cancel()
}

// Enqueue hands e to the pool. It drops the entry, logs and counts the drop
// when the queue is full or the dispatcher is shutting down.
func (d *Dispatcher) Enqueue(ctx context.Context, e Entry) bool {
	d.intake.RLock()
	defer d.intake.RUnlock()

	if d.closed {
		metrics.AuditEntries.WithLabelValues("dropped").Inc()
		d.logger.Warn("audit dispatcher closed, dropping entry", "audit_id", e.ID, "kind", e.Kind)
		return false
	}

	select {
	case d.jobQueue <- job{ctx: ctx, entry: e}:
		metrics.AuditEntries.WithLabelValues("enqueued").Inc()
		metrics.AuditQueueDepth.Set(float64(len(d.jobQueue)))
		return true
	default:
		metrics.AuditEntries.WithLabelValues("dropped").Inc()
		d.logger.Warn("audit queue full, dropping entry",
			"audit_id", e.ID,
			"kind", e.Kind,
			"subject_type", e.SubjectType,
			"subject_id", e.SubjectID,
			"queue_capacity", cap(d.jobQueue))
		return false
	}
}

func (d *Dispatcher) process(j job) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.AuditEntries.WithLabelValues("failed").Inc()
			d.logger.Error("audit write panicked", "audit_id", j.entry.ID, "panic", rec)
		}
	}()

	// The request may be long gone; keep its values, drop its cancellation.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.writeTimeout)
	defer cancel()

	started := time.Now()
	err := d.store.Save(ctx, ToDataModel(&j.entry))
	metrics.AuditWriteDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.AuditEntries.WithLabelValues("failed").Inc()
		d.logger.Error("failed to persist audit entry",
			"audit_id", j.entry.ID,
			"kind", j.entry.Kind,
			"subject_type", j.entry.SubjectType,
			"subject_id", j.entry.SubjectID,
			"error", err)
		return
	}
	metrics.AuditEntries.WithLabelValues("persisted").Inc()
}

func (d *Dispatcher) abandon(j job) {
	metrics.AuditEntries.WithLabelValues("dropped").Inc()
	d.logger.Warn("audit dispatcher stopped before entry was written", "audit_id", j.entry.ID, "kind", j.entry.Kind)
}

// QueueDepth reports entries waiting for a worker.
func (d *Dispatcher) QueueDepth() (int, int) {
	return len(d.jobQueue), cap(d.jobQueue)
}

// Shutdown stops intake and waits for queued entries to be written. If ctx
// ends first the remaining entries are abandoned and ctx.Err is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.logger.Info("shutting down audit dispatcher", "pending", len(d.jobQueue))

	d.closeOnce.Do(func() {
		d.intake.Lock()
		d.closed = true
		close(d.jobQueue)
		d.intake.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("audit dispatcher shutdown complete")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		d.logger.Warn("audit dispatcher shutdown timed out")
		return ctx.Err()
	}
}
