package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/clock"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/metrics"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

// Config tunes the dispatcher's worker pool and failure policy.
type Config struct {
	Workers     int
	MaxAttempts int
	BackoffBase time.Duration
	// NeutralScore replaces the grade when the retry budget is exhausted,
	// so a broken evaluator never blocks round completion.
	NeutralScore float64
	// SkipPolicy "zero" resolves empty answers to 0 without calling the
	// evaluator; "grade" treats them as normal submissions.
	SkipPolicy string
	// GradeTimeout bounds one grading attempt.
	GradeTimeout time.Duration
}

// Dispatcher owns the asynchronous evaluation pipeline. Jobs are persisted
// rows first and queue entries second: the channel is only a wake-up
// signal, so a restart can requeue from the database.
type Dispatcher struct {
	db     *gorm.DB
	clk    clock.Clock
	logger *zap.Logger
	grader Grader
	cfg    Config

	queue  chan string
	stopCh chan struct{}
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewDispatcher(db *gorm.DB, clk clock.Clock, grader Grader, cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.GradeTimeout <= 0 {
		cfg.GradeTimeout = 90 * time.Second
	}
	return &Dispatcher{
		db:     db,
		clk:    clk,
		logger: logger,
		grader: grader,
		cfg:    cfg,
		queue:  make(chan string, 1024),
		stopCh: make(chan struct{}),
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.cfg.Workers; i++ {
			d.wg.Add(1)
			go d.worker()
		}
	})
}

// Stop drains the workers. In-flight attempts finish; queued jobs stay
// persisted and are picked up again via RequeueStale after restart.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.wg.Wait()
	})
}

// Enqueue registers an evaluation job for an answered item. It is
// idempotent per item: if any job already exists for the item, its id is
// returned and nothing new is created.
func (d *Dispatcher) Enqueue(ctx context.Context, payload *SubmissionPayload) (string, error) {
	var jobID string
	var dispatch bool

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.EvaluationJob
		err := tx.Where("item_id = ?", payload.ItemID).Order("enqueued_at DESC").First(&existing).Error
		if err == nil {
			jobID = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		now := d.clk.Now()
		job := models.EvaluationJob{
			ID:         uuid.New().String(),
			ItemID:     payload.ItemID,
			SessionID:  payload.SessionID,
			RoundID:    payload.RoundID,
			Kind:       payload.Kind,
			Status:     models.JobQueued,
			Payload:    string(encoded),
			EnqueuedAt: now,
		}

		// A skip under the zero policy resolves immediately without an
		// evaluator round-trip.
		if d.cfg.SkipPolicy == "zero" && payload.Skipped() {
			zero := 0.0
			job.Status = models.JobDone
			job.Score = &zero
			job.Feedback = "No answer submitted."
			job.CompletedAt = &now
		}

		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		jobID = job.ID

		if job.Status == models.JobDone {
			if err := applyResultTx(tx, &job); err != nil {
				return err
			}
			metrics.EvaluationsCompleted.WithLabelValues(string(models.JobDone)).Inc()
		} else {
			dispatch = true
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if dispatch {
		metrics.EvaluationsEnqueued.Inc()
		d.push(jobID)
	}
	return jobID, nil
}

// Status reports the last known evaluation state for an item. It never
// blocks on in-flight work.
func (d *Dispatcher) Status(ctx context.Context, itemID string) (*models.EvaluationView, error) {
	var job models.EvaluationJob
	err := d.db.WithContext(ctx).Where("item_id = ?", itemID).Order("enqueued_at DESC").First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.EvaluationView{Evaluated: false}, nil
	}
	if err != nil {
		return nil, err
	}
	if !job.Status.Terminal() {
		return &models.EvaluationView{Evaluated: false}, nil
	}

	result := &models.EvaluationResult{
		Feedback: job.Feedback,
		PassRate: job.PassRate,
		Status:   job.Status,
	}
	if job.Score != nil {
		result.Score = *job.Score
	}
	if job.SubScores != "" {
		_ = json.Unmarshal([]byte(job.SubScores), &result.SubScores)
	}
	return &models.EvaluationView{Evaluated: true, Evaluation: result}, nil
}

// RequeueStale re-dispatches jobs left queued (e.g. full channel, crash)
// and resets evaluating jobs whose claim is older than the window, which
// means the claiming worker died mid-flight. Called from the cron sweeper.
// Re-pushing a job id that is already in the channel is harmless: the
// conditional claim in process lets only one delivery grade it.
func (d *Dispatcher) RequeueStale(ctx context.Context, olderThan time.Duration) error {
	cutoff := d.clk.Now().Add(-olderThan)

	var stuck []models.EvaluationJob
	if err := d.db.WithContext(ctx).
		Where("status = ? AND claimed_at < ?", models.JobEvaluating, cutoff).
		Find(&stuck).Error; err != nil {
		return err
	}
	for _, job := range stuck {
		if err := d.db.WithContext(ctx).Model(&models.EvaluationJob{}).
			Where("id = ? AND status = ?", job.ID, models.JobEvaluating).
			Update("status", models.JobQueued).Error; err != nil {
			return err
		}
	}

	var queued []models.EvaluationJob
	if err := d.db.WithContext(ctx).
		Where("status = ?", models.JobQueued).
		Find(&queued).Error; err != nil {
		return err
	}
	for _, job := range queued {
		d.push(job.ID)
	}
	return nil
}

func (d *Dispatcher) push(jobID string) {
	select {
	case d.queue <- jobID:
	default:
		// Channel full: the job row stays queued and RequeueStale will
		// redeliver it.
		d.logger.Warn("evaluation queue full, deferring job", zap.String("job_id", jobID))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case jobID := <-d.queue:
			d.process(jobID)
		}
	}
}

func (d *Dispatcher) process(jobID string) {
	// The claim is conditional on the queued status: a job id can be
	// delivered more than once (sweeper re-push while the first delivery
	// still sits in the channel, backoff re-push racing a sweep), and only
	// the delivery that flips queued -> evaluating may run the evaluator.
	claim := d.db.Model(&models.EvaluationJob{}).
		Where("id = ? AND status = ?", jobID, models.JobQueued).
		Updates(map[string]interface{}{
			"status":     models.JobEvaluating,
			"attempts":   gorm.Expr("attempts + 1"),
			"claimed_at": d.clk.Now(),
		})
	if claim.Error != nil {
		d.logger.Error("failed to claim evaluation job", zap.String("job_id", jobID), zap.Error(claim.Error))
		return
	}
	if claim.RowsAffected == 0 {
		// Terminal, mid-grade elsewhere, or gone: nothing to do.
		return
	}

	var job models.EvaluationJob
	if err := d.db.First(&job, "id = ?", jobID).Error; err != nil {
		d.logger.Error("evaluation job vanished", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	var payload SubmissionPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		d.logger.Error("corrupt job payload", zap.String("job_id", jobID), zap.Error(err))
		d.finalize(&job, nil, "corrupt payload: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.GradeTimeout)
	grade, err := d.grader.Grade(ctx, &payload)
	cancel()

	if err == nil {
		d.finalize(&job, grade, "")
		return
	}

	d.logger.Warn("evaluation attempt failed",
		zap.String("job_id", jobID),
		zap.String("item_id", job.ItemID),
		zap.Int("attempt", job.Attempts),
		zap.Error(err))

	if job.Attempts >= d.cfg.MaxAttempts {
		// Retry budget exhausted: resolve to the neutral score instead of
		// hanging the candidate's round.
		d.finalize(&job, nil, err.Error())
		return
	}

	metrics.EvaluationRetries.Inc()
	backoff := d.cfg.BackoffBase * time.Duration(1<<(job.Attempts-1))
	if err := d.db.Model(&job).Update("status", models.JobQueued).Error; err != nil {
		d.logger.Error("failed to requeue evaluation job", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	go func() {
		select {
		case <-time.After(backoff):
			d.push(job.ID)
		case <-d.stopCh:
		}
	}()
}

// finalize writes the terminal state and propagates the score to the item
// and its round. A nil grade means failure: the neutral score is recorded
// under the failed status.
func (d *Dispatcher) finalize(job *models.EvaluationJob, grade *Grade, lastError string) {
	now := d.clk.Now()
	status := models.JobDone
	score := d.cfg.NeutralScore
	if grade != nil {
		score = grade.Score
		job.Feedback = grade.Feedback
		job.PassRate = grade.PassRate
		if len(grade.SubScores) > 0 {
			if encoded, err := json.Marshal(grade.SubScores); err == nil {
				job.SubScores = string(encoded)
			}
		}
	} else {
		status = models.JobFailed
		job.Feedback = "Evaluation unavailable; a neutral score was applied."
	}

	job.Status = status
	job.Score = &score
	job.LastError = lastError
	job.CompletedAt = &now

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(job).Error; err != nil {
			return err
		}
		return applyResultTx(tx, job)
	})
	if err != nil {
		d.logger.Error("failed to finalize evaluation",
			zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	metrics.EvaluationsCompleted.WithLabelValues(string(status)).Inc()
	metrics.EvaluationDuration.Observe(now.Sub(job.EnqueuedAt).Seconds())
	d.logger.Info("evaluation resolved",
		zap.String("job_id", job.ID),
		zap.String("item_id", job.ItemID),
		zap.String("status", string(status)),
		zap.Float64("score", score))
}

// applyResultTx sets the item's evaluation reference exactly once and
// refines the round's running score. Round status is never touched here:
// late results refine scores but cannot reopen a sealed round.
func applyResultTx(tx *gorm.DB, job *models.EvaluationJob) error {
	if err := tx.Model(&models.Item{}).
		Where("id = ? AND evaluation_id IS NULL", job.ItemID).
		Updates(map[string]interface{}{
			"evaluation_id": job.ID,
			"score":         job.Score,
		}).Error; err != nil {
		return err
	}
	return RefreshRoundScore(tx, job.RoundID)
}

// RefreshRoundScore recomputes a round's score as the mean item score,
// counting unresolved evaluations as zero.
func RefreshRoundScore(tx *gorm.DB, roundID uint) error {
	var items []models.Item
	if err := tx.Where("round_id = ?", roundID).Find(&items).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	var sum float64
	for _, item := range items {
		if item.Score != nil {
			sum += *item.Score
		}
	}
	return tx.Model(&models.Round{}).
		Where("id = ?", roundID).
		Update("score", sum/float64(len(items))).Error
}
