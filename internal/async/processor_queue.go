package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/metrics"
)

// PersonProcessor is satisfied by *pipeline.Processor.
type PersonProcessor interface {
	ProcessPerson(ctx context.Context, person entity.PersonDocuments) (entity.PersonResult, error)
}

// ResultHandler receives every finished job. It is called from worker
// goroutines and must be safe for concurrent use.
type ResultHandler func(job Job, result entity.PersonResult, err error)

var _ Queue = (*ProcessorQueue)(nil)

type ProcessorQueue struct {
	proc     PersonProcessor
	logger   *slog.Logger
	metrics  *metrics.Metrics
	onResult ResultHandler
	workers  int
	timeout  time.Duration

	ch      chan Job
	done    chan struct{} // closed by Shutdown; wakes blocked senders
	wg      sync.WaitGroup
	senders sync.WaitGroup // Enqueue calls in flight; ch is closed after them
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithResultHandler(h ResultHandler) Option {
	return func(q *ProcessorQueue) { q.onResult = h }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *ProcessorQueue) { q.metrics = m }
}

func NewProcessorQueue(proc PersonProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work(i + 1)
		}
	})
}

func (q *ProcessorQueue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Debug("queue.worker.started", "worker_id", workerID)

	for job := range q.ch {
		q.metrics.SetQueueDepth(len(q.ch))
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		res, err := q.proc.ProcessPerson(ctx, job.Person)
		cancel()

		if err != nil {
			q.logger.Error("queue.job.failed",
				"worker_id", workerID, "person_id", job.Person.PersonID, "trace_id", job.TraceID, "error", err)
		} else {
			q.logger.Info("queue.job.done",
				"worker_id", workerID,
				"person_id", job.Person.PersonID,
				"overall_status", res.OverallStatus,
				"wait_ms", time.Since(job.SubmittedAt).Milliseconds(),
			)
		}
		if q.onResult != nil {
			q.onResult(job, res, err)
		}
	}
	q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
}

// Enqueue blocks while the queue is full until there is room, ctx ends or
// the queue shuts down. The lock is only held to register the sender, so a
// blocked Enqueue never delays Shutdown.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.closed", "person_id", job.Person.PersonID)
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.enqueue.backpressure", "person_id", job.Person.PersonID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			q.logger.Warn("queue.enqueue.closed", "person_id", job.Person.PersonID)
			return ErrQueueClosed
		}
	}
	q.metrics.SetQueueDepth(len(q.ch))
	q.logger.Debug("queue.enqueue.ok", "person_id", job.Person.PersonID)
	return nil
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for
// ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		q.senders.Wait()
		close(q.ch)
		q.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-drained:
		q.logger.Info("queue.shutdown.drained")
	}
}
