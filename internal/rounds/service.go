package rounds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/clock"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/config"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/evaluation"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/metrics"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/progression"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/questions"
)

// Enqueuer is the slice of the evaluation dispatcher the round state
// machine needs: fire-and-forget job submission.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload *evaluation.SubmissionPayload) (string, error)
}

// Service is the round state machine. Each round moves
// not_started -> in_progress -> completed; the current-item pointer only
// moves forward, and evaluation is decoupled from progression: submitting
// item N+1 never waits for item N's grade.
type Service struct {
	db     *gorm.DB
	clk    clock.Clock
	gen    questions.Generator
	enq    Enqueuer
	plans  map[models.RoundKind]config.RoundPlan
	logger *zap.Logger
}

func NewService(db *gorm.DB, clk clock.Clock, gen questions.Generator, enq Enqueuer, plans map[models.RoundKind]config.RoundPlan, logger *zap.Logger) *Service {
	return &Service{db: db, clk: clk, gen: gen, enq: enq, plans: plans, logger: logger}
}

// Start initializes a round, or returns its current state when it is
// already running: reloading the page and calling start again lands the
// candidate on the same item.
func (s *Service) Start(ctx context.Context, session *models.Session, kind models.RoundKind) (*models.RoundSnapshot, error) {
	plan, ok := s.plans[kind]
	if !ok {
		return nil, ErrUnknownRound
	}

	round, items, err := s.load(ctx, session.ID, kind)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if round != nil {
		switch round.Status {
		case models.RoundCompleted:
			return s.snapshot(round, items), nil
		case models.RoundInProgress:
			if clock.Expired(s.clk, round.Deadline) {
				if err := s.seal(ctx, round, "deadline"); err != nil {
					return nil, err
				}
				return s.snapshot(round, items), nil
			}
			return s.snapshot(round, items), nil
		}
	}

	generated, err := s.gen.Generate(ctx, session.TargetRole, session.Difficulty, kind, plan.ItemCount)
	if err != nil {
		return nil, fmt.Errorf("item generation failed for round %s: %w", kind, err)
	}
	if len(generated) == 0 {
		return nil, questions.ErrNoItems
	}

	now := s.clk.Now()
	newRound := models.Round{
		SessionID: session.ID,
		Kind:      kind,
		Status:    models.RoundInProgress,
		StartedAt: &now,
	}
	if plan.TimeLimit > 0 {
		deadline := now.Add(plan.TimeLimit)
		newRound.Deadline = &deadline
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newRound).Error; err != nil {
			return err
		}
		for i := range generated {
			generated[i].ID = uuid.New().String()
			generated[i].RoundID = newRound.ID
			generated[i].Position = i
			if kind == models.RoundCoding && generated[i].Language == "" {
				generated[i].Language = "python"
			}
		}
		return tx.Create(&generated).Error
	})
	if err != nil {
		return nil, err
	}
	newRound.Items = generated

	s.logger.Info("round started",
		zap.String("session_id", session.ID),
		zap.String("kind", string(kind)),
		zap.Int("items", len(generated)))

	return s.snapshot(&newRound, generated), nil
}

// Submit records the answer for the round's current item, enqueues its
// evaluation, and advances the pointer. A skip is an empty answer: it
// advances exactly the same way.
func (s *Service) Submit(ctx context.Context, session *models.Session, kind models.RoundKind, req *models.SubmitRequest) (*models.SubmitResult, error) {
	round, items, err := s.load(ctx, session.ID, kind)
	if errors.Is(err, gorm.ErrRecordNotFound) || round == nil {
		return nil, ErrRoundNotStarted
	}
	if err != nil {
		return nil, err
	}

	switch round.Status {
	case models.RoundNotStarted:
		return nil, ErrRoundNotStarted
	case models.RoundCompleted:
		return nil, ErrRoundCompleted
	}

	if clock.Expired(s.clk, round.Deadline) {
		if err := s.seal(ctx, round, "deadline"); err != nil {
			return nil, err
		}
		return nil, ErrDeadlineExceeded
	}

	engine := progression.Resume(len(items), round.CurrentIndex, kind == models.RoundCoding)
	currentIdx := engine.Current()
	if currentIdx < 0 {
		// Index says exhausted but status was still in_progress; seal and
		// reject.
		if err := s.seal(ctx, round, "exhausted"); err != nil {
			return nil, err
		}
		return nil, ErrRoundCompleted
	}

	current := &items[currentIdx]
	if current.ID != req.ItemID {
		return nil, ErrInvalidItem
	}

	answer := req.Answer
	now := s.clk.Now()
	language := current.Language
	if req.Language != "" {
		language = req.Language
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Item{}).
			Where("id = ? AND answer IS NULL", current.ID).
			Updates(map[string]interface{}{
				"answer":       answer,
				"time_spent_s": req.TimeSpentS,
				"answered_at":  now,
				"language":     language,
			}).Error; err != nil {
			return err
		}
		engine.Advance()
		round.CurrentIndex = currentIdx + 1
		return tx.Model(&models.Round{}).
			Where("id = ?", round.ID).
			Update("current_index", round.CurrentIndex).Error
	})
	if err != nil {
		return nil, err
	}
	current.Answer = &answer
	current.TimeSpentS = req.TimeSpentS
	current.AnsweredAt = &now
	current.Language = language

	s.enqueueEvaluation(ctx, session, round, current)

	completed := engine.Done()
	if completed {
		if err := s.seal(ctx, round, "exhausted"); err != nil {
			return nil, err
		}
	}

	result := &models.SubmitResult{
		Snapshot:  *s.snapshot(round, items),
		Completed: completed,
	}
	if !completed {
		result.NextItem = s.itemView(round, &items[round.CurrentIndex])
	}
	return result, nil
}

// Status returns the round snapshot, sealing it first if the deadline has
// quietly elapsed.
func (s *Service) Status(ctx context.Context, session *models.Session, kind models.RoundKind) (*models.RoundSnapshot, error) {
	round, items, err := s.load(ctx, session.ID, kind)
	if errors.Is(err, gorm.ErrRecordNotFound) || round == nil {
		return &models.RoundSnapshot{Kind: kind, Status: models.RoundNotStarted}, nil
	}
	if err != nil {
		return nil, err
	}
	if round.Status == models.RoundInProgress && clock.Expired(s.clk, round.Deadline) {
		if err := s.seal(ctx, round, "deadline"); err != nil {
			return nil, err
		}
	}
	return s.snapshot(round, items), nil
}

// ForceCompleteExpired seals every in-progress round whose deadline has
// elapsed and returns the affected rounds so the session orchestrator can
// follow up. Pending answers are preserved as-is; in-flight evaluations
// keep running and refine the stored score later.
func (s *Service) ForceCompleteExpired(ctx context.Context) ([]models.Round, error) {
	now := s.clk.Now()
	var expired []models.Round
	if err := s.db.WithContext(ctx).
		Where("status = ? AND deadline IS NOT NULL AND deadline <= ?", models.RoundInProgress, now).
		Find(&expired).Error; err != nil {
		return nil, err
	}

	sealed := make([]models.Round, 0, len(expired))
	for i := range expired {
		if err := s.seal(ctx, &expired[i], "deadline"); err != nil {
			return sealed, err
		}
		sealed = append(sealed, expired[i])
	}
	return sealed, nil
}

func (s *Service) enqueueEvaluation(ctx context.Context, session *models.Session, round *models.Round, item *models.Item) {
	payload := &evaluation.SubmissionPayload{
		SessionID:  session.ID,
		RoundID:    round.ID,
		Kind:       round.Kind,
		ItemID:     item.ID,
		Question:   item.Prompt,
		Category:   item.Category,
		Difficulty: item.Difficulty,
		Role:       session.TargetRole,
		Answer:     derefString(item.Answer),
		Language:   item.Language,
		TimeSpentS: item.TimeSpentS,
	}
	if round.Kind == models.RoundCoding && item.TestCases != "" {
		if err := json.Unmarshal([]byte(item.TestCases), &payload.TestCases); err != nil {
			s.logger.Error("corrupt test cases on item",
				zap.String("item_id", item.ID), zap.Error(err))
		}
	}

	// Fire and forget: a dispatch failure must not block progression. The
	// stale-job sweep will not see a row, so log loudly.
	if _, err := s.enq.Enqueue(ctx, payload); err != nil {
		s.logger.Error("failed to enqueue evaluation",
			zap.String("item_id", item.ID),
			zap.String("session_id", session.ID),
			zap.Error(err))
	}
}

// seal marks a round completed and freezes the completion status. The
// score is whatever evaluations have resolved so far; stragglers refine it
// later without reopening the round.
func (s *Service) seal(ctx context.Context, round *models.Round, reason string) error {
	if round.Status == models.RoundCompleted {
		return nil
	}
	now := s.clk.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Round{}).
			Where("id = ? AND status <> ?", round.ID, models.RoundCompleted).
			Updates(map[string]interface{}{
				"status":       models.RoundCompleted,
				"completed_at": now,
			}).Error; err != nil {
			return err
		}
		return evaluation.RefreshRoundScore(tx, round.ID)
	})
	if err != nil {
		return err
	}
	round.Status = models.RoundCompleted
	round.CompletedAt = &now

	var refreshed models.Round
	if err := s.db.WithContext(ctx).First(&refreshed, round.ID).Error; err == nil {
		round.Score = refreshed.Score
	}

	metrics.RoundsCompleted.WithLabelValues(string(round.Kind), reason).Inc()
	s.logger.Info("round completed",
		zap.String("session_id", round.SessionID),
		zap.String("kind", string(round.Kind)),
		zap.String("reason", reason),
		zap.Float64("score", round.Score))
	return nil
}

func (s *Service) load(ctx context.Context, sessionID string, kind models.RoundKind) (*models.Round, []models.Item, error) {
	var round models.Round
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND kind = ?", sessionID, kind).
		First(&round).Error
	if err != nil {
		return nil, nil, err
	}

	var items []models.Item
	if err := s.db.WithContext(ctx).
		Where("round_id = ?", round.ID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &round, items, nil
}

func (s *Service) snapshot(round *models.Round, items []models.Item) *models.RoundSnapshot {
	snap := &models.RoundSnapshot{
		Kind:         round.Kind,
		Status:       round.Status,
		CurrentIndex: round.CurrentIndex,
		TotalItems:   len(items),
		Score:        round.Score,
		Deadline:     round.Deadline,
	}
	if round.Deadline != nil && round.Status == models.RoundInProgress {
		remaining := clock.Remaining(s.clk, *round.Deadline).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingS = &remaining
	}
	if round.Status == models.RoundInProgress && round.CurrentIndex < len(items) {
		snap.CurrentItem = s.itemView(round, &items[round.CurrentIndex])
	}
	return snap
}

func (s *Service) itemView(round *models.Round, item *models.Item) *models.ItemView {
	view := &models.ItemView{
		ID:         item.ID,
		Position:   item.Position,
		Prompt:     item.Prompt,
		Category:   item.Category,
		Difficulty: item.Difficulty,
		Language:   item.Language,
	}
	if round.Deadline != nil {
		remaining := clock.Remaining(s.clk, *round.Deadline).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		view.DeadlineS = &remaining
	}
	return view
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
