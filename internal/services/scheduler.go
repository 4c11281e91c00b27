package services

import (
	"context"
	"fmt"

	"github.com/carlos-juma/branch.it-IMY220/internal/config"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/robfig/cron/v3"
)

const systemLogCleanupSchedule = "30 3 * * *"

// Scheduler runs periodic maintenance: the reconcile sweep and system log
// retention.
type Scheduler struct {
	cron      *cron.Cron
	reconcile *ReconcileService
	logs      *SystemLogService
	queue     TaskQueue
}

func NewScheduler(reconcile *ReconcileService, logs *SystemLogService, queue TaskQueue) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		reconcile: reconcile,
		logs:      logs,
		queue:     queue,
	}
}

// Start registers the jobs and starts the cron loop. A bad reconcile
// schedule is an error; nothing is started in that case.
func (s *Scheduler) Start(cfg *config.ReconcileConfig) error {
	if cfg.Enabled {
		if _, err := s.cron.AddFunc(cfg.Schedule, s.runReconcile); err != nil {
			return fmt.Errorf("invalid reconcile schedule %q: %w", cfg.Schedule, err)
		}
		logger.Infof("[Scheduler] Reconcile scheduled (cron: %s)", cfg.Schedule)
	}

	if s.logs != nil {
		if _, err := s.cron.AddFunc(systemLogCleanupSchedule, func() {
			s.logs.RunCleanup(context.Background())
		}); err != nil {
			return fmt.Errorf("scheduling log cleanup: %w", err)
		}
		go s.logs.RunCleanup(context.Background())
	}

	s.cron.Start()
	logger.Infof("[Scheduler] Started with %d job(s)", len(s.cron.Entries()))
	return nil
}

// runReconcile hands the sweep to the task queue when it is asynchronous so
// only one worker runs it, and runs it inline otherwise.
func (s *Scheduler) runReconcile() {
	if s.queue != nil && s.queue.IsAsync() {
		err := s.queue.Enqueue(&MaintenanceTask{Kind: TaskTypeReconcile})
		if err == nil {
			return
		}
		logger.Warn().Err(err).Msg("failed to enqueue reconcile, running inline")
	}
	if _, err := s.reconcile.Run(context.Background()); err != nil {
		logger.Error().Err(err).Msg("scheduled reconcile failed")
	}
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
