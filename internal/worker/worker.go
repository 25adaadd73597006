package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/services"
)

// Worker drains the task queue: single-email processing, ingestion
// sweeps, retention cleanup, knowledge refresh and response dispatch.
// Several goroutines dequeue in parallel; each task is acked on success
// and nacked back to the queue on failure.
type Worker struct {
	taskQueue     driven.TaskQueue
	orchestrator  driving.AgentOrchestrator
	processor     *services.Processor
	responseStore driven.ResponseStore
	scheduler     *services.Scheduler
	logger        *slog.Logger

	concurrency    int
	dequeueTimeout int // seconds

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Orchestrator   driving.AgentOrchestrator
	Processor      *services.Processor
	ResponseStore  driven.ResponseStore
	Scheduler      *services.Scheduler
	Logger         *slog.Logger
	Concurrency    int // parallel dequeue goroutines
	DequeueTimeout int // seconds to block waiting for a task
}

// NewWorker creates a task worker. Zero-value concurrency and timeout
// fall back to 1 goroutine and 5 seconds.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = 5
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		orchestrator:   cfg.Orchestrator,
		processor:      cfg.Processor,
		responseStore:  cfg.ResponseStore,
		scheduler:      cfg.Scheduler,
		logger:         cfg.Logger,
		concurrency:    cfg.Concurrency,
		dequeueTimeout: cfg.DequeueTimeout,
	}
}

// Start launches the dequeue goroutines and the scheduler. Calling
// Start on a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.run(ctx, id)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop cancels the dequeue goroutines and blocks until they exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.mu.Unlock()

	if w.scheduler != nil {
		if err := w.scheduler.Stop(context.Background()); err != nil {
			w.logger.Error("failed to stop scheduler", "error", err)
		}
	}

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// run is one dequeue goroutine.
func (w *Worker) run(ctx context.Context, id int) {
	logger := w.logger.With("worker_id", id)
	logger.Info("worker goroutine started")

	for ctx.Err() == nil {
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.handle(ctx, task, logger)
	}
	logger.Info("worker goroutine exiting")
}

// handle dispatches one task and settles it with the queue.
func (w *Worker) handle(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type)
	logger.Info("processing task")

	start := time.Now()

	var err error
	switch task.Type {
	case domain.TaskTypeProcessEmail:
		err = w.handleProcessEmail(ctx, task)
	case domain.TaskTypeIngestionSweep:
		err = w.handleIngestionSweep(ctx)
	case domain.TaskTypeRetentionCleanup:
		err = w.handleRetentionCleanup(ctx)
	case domain.TaskTypeKnowledgeRefresh:
		err = w.handleKnowledgeRefresh(ctx)
	case domain.TaskTypeSendResponse:
		err = w.handleSendResponse(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	if err != nil {
		logger.Error("task failed", "duration", time.Since(start), "error", err)
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", time.Since(start))
	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleProcessEmail runs the analysis pipeline for one email record.
func (w *Worker) handleProcessEmail(ctx context.Context, task *domain.Task) error {
	emailID := task.EmailID()
	if emailID == "" {
		return fmt.Errorf("email_id not found in task payload")
	}

	_, err := w.processor.ProcessByID(ctx, emailID)
	return err
}

// handleIngestionSweep fetches and processes a batch of unread mail.
// An already-running sweep is not an error; the next schedule catches up.
func (w *Worker) handleIngestionSweep(ctx context.Context) error {
	result, err := w.orchestrator.RunSweep(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSweepInProgress) {
			w.logger.Info("sweep already running, skipping")
			return nil
		}
		return err
	}

	if !result.Success {
		return fmt.Errorf("sweep failed: %s", result.Error)
	}

	if result.Stats.Failed > 0 {
		// Individual failures are recorded on the email records
		// themselves; the sweep as a whole still succeeded
		w.logger.Warn("sweep finished with failures",
			"fetched", result.Stats.Fetched,
			"processed", result.Stats.Processed,
			"failed", result.Stats.Failed,
		)
	}

	return nil
}

// handleRetentionCleanup deletes expired read records.
func (w *Worker) handleRetentionCleanup(ctx context.Context) error {
	_, err := w.orchestrator.RunCleanup(ctx)
	return err
}

// handleKnowledgeRefresh feeds recent responded threads back into the
// knowledge base.
func (w *Worker) handleKnowledgeRefresh(ctx context.Context) error {
	_, err := w.orchestrator.RunRefresh(ctx)
	return err
}

// handleSendResponse dispatches a stored response through the mail
// provider.
func (w *Worker) handleSendResponse(ctx context.Context, task *domain.Task) error {
	responseID := task.ResponseID()
	if responseID == "" {
		return fmt.Errorf("response_id not found in task payload")
	}

	response, err := w.responseStore.Get(ctx, responseID)
	if err != nil {
		return fmt.Errorf("failed to load response: %w", err)
	}

	return w.processor.Send(ctx, response)
}

// Health reports whether the worker loop is running and the queue is
// reachable.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	health := Health{Running: w.running}
	w.mu.RUnlock()

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
