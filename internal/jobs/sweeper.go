package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/evaluation"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/session"
)

// SweeperConfig tunes the background maintenance job.
type SweeperConfig struct {
	// Schedule is a robfig/cron expression; "@every 15s" by default.
	Schedule string
	// StaleAfter is how long an evaluating job may sit before it is
	// assumed orphaned and requeued.
	StaleAfter time.Duration
	// SweepTimeout bounds one sweep run.
	SweepTimeout time.Duration
}

// Sweeper is the deadline and recovery backstop: it force-completes rounds
// whose deadline passed with no client request to observe it, requeues
// evaluation jobs orphaned by a crash, and retries deferred report
// finalization.
type Sweeper struct {
	orchestrator *session.Orchestrator
	dispatcher   *evaluation.Dispatcher
	cfg          SweeperConfig
	cron         *cron.Cron
	logger       *zap.Logger
}

func NewSweeper(orchestrator *session.Orchestrator, dispatcher *evaluation.Dispatcher, cfg SweeperConfig, logger *zap.Logger) *Sweeper {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 15s"
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = 30 * time.Second
	}
	return &Sweeper{
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		cfg:          cfg,
		cron:         cron.New(),
		logger:       logger,
	}
}

// Start schedules the sweep.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SweepTimeout)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweeper: %w", err)
	}
	s.cron.Start()
	s.logger.Info("sweeper started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop halts scheduling; a sweep already running finishes.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep runs one maintenance pass. Exposed so tests and operators can run
// it on demand.
func (s *Sweeper) Sweep(ctx context.Context) {
	if err := s.orchestrator.SyncExpired(ctx); err != nil {
		s.logger.Error("deadline sweep failed", zap.Error(err))
	}
	if err := s.dispatcher.RequeueStale(ctx, s.cfg.StaleAfter); err != nil {
		s.logger.Error("stale job requeue failed", zap.Error(err))
	}
}
