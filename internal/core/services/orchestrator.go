package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
)

// Ensure agentOrchestrator implements AgentOrchestrator
var _ driving.AgentOrchestrator = (*agentOrchestrator)(nil)

// defaultSweepConcurrency bounds how many messages one sweep processes in parallel.
const defaultSweepConcurrency = 4

// refreshWindow is how far back the knowledge refresh looks for responded threads.
const refreshWindow = 7 * 24 * time.Hour

// refreshBatchLimit caps how many threads one refresh run feeds back.
const refreshBatchLimit = 200

// cleanupBatchLimit caps how many records one cleanup run examines.
const cleanupBatchLimit = 500

// agentOrchestrator coordinates the periodic agent jobs. A single sweep runs
// at a time; cleanup and refresh are cheap enough to run unguarded.
type agentOrchestrator struct {
	mail          driven.MailProvider
	emailStore    driven.EmailStore
	responseStore driven.ResponseStore
	settingsStore driven.SettingsStore
	processor     *Processor
	knowledge     driving.KnowledgeService
	concurrency   int
	logger        *slog.Logger

	mu       sync.Mutex
	sweeping bool
	state    domain.SweepState
}

// OrchestratorConfig holds dependencies for the agent orchestrator.
type OrchestratorConfig struct {
	Mail          driven.MailProvider
	EmailStore    driven.EmailStore
	ResponseStore driven.ResponseStore
	SettingsStore driven.SettingsStore
	Processor     *Processor
	Knowledge     driving.KnowledgeService
	Concurrency   int // Parallel message processing per sweep (default: 4)
	Logger        *slog.Logger
}

// NewOrchestrator creates a new AgentOrchestrator.
func NewOrchestrator(cfg OrchestratorConfig) driving.AgentOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultSweepConcurrency
	}

	return &agentOrchestrator{
		mail:          cfg.Mail,
		emailStore:    cfg.EmailStore,
		responseStore: cfg.ResponseStore,
		settingsStore: cfg.SettingsStore,
		processor:     cfg.Processor,
		knowledge:     cfg.Knowledge,
		concurrency:   concurrency,
		logger:        logger,
		state:         domain.SweepState{Status: domain.SweepStatusIdle},
	}
}

// RunSweep fetches a batch of unread mail and processes each message.
// One failed message never aborts the batch.
func (o *agentOrchestrator) RunSweep(ctx context.Context) (*domain.SweepResult, error) {
	if !o.beginSweep() {
		return nil, domain.ErrSweepInProgress
	}
	startTime := time.Now()

	settings := o.currentSettings(ctx)
	o.logger.Info("starting ingestion sweep", "batch_size", settings.SweepBatchSize)

	messages, err := o.mail.FetchUnread(ctx, settings.SweepBatchSize)
	if err != nil {
		err = fmt.Errorf("failed to fetch unread mail: %w", err)
		o.endSweep(domain.SweepStats{}, startTime, err)
		return &domain.SweepResult{
			Success:  false,
			Error:    err.Error(),
			Duration: time.Since(startTime).Seconds(),
		}, err
	}

	stats := o.processBatch(ctx, messages)
	o.endSweep(stats, startTime, nil)

	duration := time.Since(startTime).Seconds()
	o.logger.Info("ingestion sweep completed",
		"duration_seconds", duration,
		"fetched", stats.Fetched,
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"responded", stats.Responded,
		"failed", stats.Failed,
	)

	return &domain.SweepResult{
		Success:  true,
		Stats:    stats,
		Duration: duration,
	}, nil
}

// processBatch dedups and processes fetched messages on a bounded pool.
func (o *agentOrchestrator) processBatch(ctx context.Context, messages []*domain.InboundMessage) domain.SweepStats {
	stats := domain.SweepStats{Fetched: len(messages)}

	pool, err := ants.NewPool(o.concurrency)
	if err != nil {
		o.logger.Error("failed to create worker pool, processing sequentially", "error", err)
		pool = nil
	} else {
		defer pool.Release()
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}
		msg := msg

		exists, err := o.emailStore.ExistsByExternalID(ctx, msg.ExternalID)
		if err != nil {
			o.logger.Warn("dedup check failed", "external_id", msg.ExternalID, "error", err)
			stats.Failed++
			continue
		}
		if exists {
			stats.Skipped++
			continue
		}

		rec := domain.NewEmailRecord(msg)
		if err := o.emailStore.Save(ctx, rec); err != nil {
			o.logger.Warn("failed to save email record", "external_id", msg.ExternalID, "error", err)
			stats.Failed++
			continue
		}

		run := func() {
			defer wg.Done()

			result, err := o.processor.Process(ctx, rec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.Warn("failed to process message",
					"email_id", rec.ID,
					"external_id", rec.ExternalID,
					"error", err,
				)
				stats.Failed++
				return
			}
			stats.Processed++
			if result.Responded {
				stats.Responded++
			}
		}

		wg.Add(1)
		if pool != nil {
			if err := pool.Submit(run); err != nil {
				wg.Done()
				mu.Lock()
				stats.Failed++
				mu.Unlock()
			}
		} else {
			run()
		}
	}

	wg.Wait()
	return stats
}

// RunCleanup deletes records whose processing finished before the retention
// window. Urgent records are exempt regardless of age.
func (o *agentOrchestrator) RunCleanup(ctx context.Context) (*domain.CleanupResult, error) {
	startTime := time.Now()
	settings := o.currentSettings(ctx)
	cutoff := startTime.AddDate(0, 0, -settings.RetentionDays)

	o.logger.Info("starting retention cleanup", "retention_days", settings.RetentionDays)

	records, err := o.emailStore.ListProcessedBefore(ctx, cutoff, cleanupBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired records: %w", err)
	}

	result := &domain.CleanupResult{Examined: len(records)}
	for _, rec := range records {
		if rec.Priority == domain.PriorityUrgent {
			result.Skipped++
			continue
		}

		if err := o.responseStore.DeleteByEmail(ctx, rec.ID); err != nil {
			o.logger.Warn("failed to delete responses", "email_id", rec.ID, "error", err)
			continue
		}
		if err := o.emailStore.Delete(ctx, rec.ID); err != nil {
			o.logger.Warn("failed to delete email record", "email_id", rec.ID, "error", err)
			continue
		}
		result.Deleted++
	}

	result.Duration = time.Since(startTime).Seconds()
	o.logger.Info("retention cleanup completed",
		"examined", result.Examined,
		"deleted", result.Deleted,
		"skipped", result.Skipped,
	)
	return result, nil
}

// RunRefresh feeds recently responded threads back into the knowledge base.
func (o *agentOrchestrator) RunRefresh(ctx context.Context) (*domain.RefreshResult, error) {
	startTime := time.Now()
	cutoff := startTime.Add(-refreshWindow)

	o.logger.Info("starting knowledge refresh", "cutoff", cutoff)

	records, err := o.emailStore.ListRespondedSince(ctx, cutoff, refreshBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list responded records: %w", err)
	}

	result := &domain.RefreshResult{Candidates: len(records)}
	for _, rec := range records {
		if err := o.refreshThread(ctx, rec); err != nil {
			o.logger.Warn("failed to refresh thread into knowledge base",
				"email_id", rec.ID, "error", err)
			result.Failed++
			continue
		}
		result.Indexed++
	}

	result.Duration = time.Since(startTime).Seconds()
	o.logger.Info("knowledge refresh completed",
		"candidates", result.Candidates,
		"indexed", result.Indexed,
		"failed", result.Failed,
	)
	return result, nil
}

// refreshThread turns one responded email and its reply into a knowledge document.
func (o *agentOrchestrator) refreshThread(ctx context.Context, rec *domain.EmailRecord) error {
	response, err := o.responseStore.GetLatestByEmail(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load response: %w", err)
	}

	content := fmt.Sprintf("Email from %s:\nSubject: %s\n\n%s\n\nResponse:\n%s",
		rec.Sender, rec.Subject, rec.Body, response.Text)

	_, err = o.knowledge.AddDocument(ctx, driving.AddDocumentRequest{
		Title:    "Email Context: " + rec.Subject,
		Content:  content,
		Category: "email",
		Tags:     []string{"email", "context"},
	})
	return err
}

// SweepState returns the state of the most recent sweep.
func (o *agentOrchestrator) SweepState(ctx context.Context) (*domain.SweepState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	state := o.state
	return &state, nil
}

// beginSweep marks a sweep running; false when one is already in flight.
func (o *agentOrchestrator) beginSweep() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sweeping {
		return false
	}
	o.sweeping = true

	now := time.Now()
	o.state = domain.SweepState{
		Status:    domain.SweepStatusRunning,
		StartedAt: &now,
	}
	return true
}

// endSweep records the sweep outcome and releases the guard.
func (o *agentOrchestrator) endSweep(stats domain.SweepStats, startTime time.Time, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	o.sweeping = false
	o.state.Stats = stats
	o.state.StartedAt = &startTime
	o.state.CompletedAt = &now
	o.state.LastSweepAt = &now
	if err != nil {
		o.state.Status = domain.SweepStatusFailed
		o.state.Error = err.Error()
	} else {
		o.state.Status = domain.SweepStatusCompleted
		o.state.Error = ""
	}
}

// currentSettings loads agent settings, falling back to defaults.
func (o *agentOrchestrator) currentSettings(ctx context.Context) *domain.Settings {
	if o.settingsStore == nil {
		return domain.DefaultSettings()
	}
	settings, err := o.settingsStore.GetSettings(ctx)
	if err != nil {
		return domain.DefaultSettings()
	}
	return settings
}
