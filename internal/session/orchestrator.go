package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/config"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/integrity"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/report"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/rounds"
)

var (
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidTransition rejects a round action that skips the fixed
	// technical -> hr -> coding order.
	ErrInvalidTransition = errors.New("invalid session transition")
)

// activeStatus maps a round kind to the session status while that round is
// running; completedStatus to the status once it is sealed.
var activeStatus = map[models.RoundKind]models.SessionStatus{
	models.RoundTechnical: models.SessionTechnicalActive,
	models.RoundHR:        models.SessionHRActive,
	models.RoundCoding:    models.SessionCodingActive,
}

var completedStatus = map[models.RoundKind]models.SessionStatus{
	models.RoundTechnical: models.SessionTechnicalCompleted,
	models.RoundHR:        models.SessionHRCompleted,
	models.RoundCoding:    models.SessionCodingCompleted,
}

// startAllowed lists the session statuses from which each round may be
// started. Starting the currently active round again is allowed and
// idempotent.
var startAllowed = map[models.RoundKind][]models.SessionStatus{
	models.RoundTechnical: {models.SessionNotStarted, models.SessionTechnicalActive},
	models.RoundHR:        {models.SessionTechnicalCompleted, models.SessionHRActive},
	models.RoundCoding:    {models.SessionHRCompleted, models.SessionCodingActive},
}

// Orchestrator drives the session lifecycle across rounds: the fixed round
// order, report finalization once the coding round seals, and the resume
// view for reconnecting clients.
type Orchestrator struct {
	db        *gorm.DB
	rounds    *rounds.Service
	integrity *integrity.Recorder
	reports   *report.Store
	cfg       *config.Config
	logger    *zap.Logger
}

func NewOrchestrator(db *gorm.DB, roundSvc *rounds.Service, recorder *integrity.Recorder, reports *report.Store, cfg *config.Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		db:        db,
		rounds:    roundSvc,
		integrity: recorder,
		reports:   reports,
		cfg:       cfg,
		logger:    logger,
	}
}

// Create opens a fresh session for a candidate. Nothing is generated yet;
// items are produced lazily when each round starts.
func (o *Orchestrator) Create(ctx context.Context, candidateID string, req *models.CreateSessionRequest) (*models.Session, error) {
	session := &models.Session{
		ID:          uuid.New().String(),
		CandidateID: candidateID,
		TargetRole:  req.TargetRole,
		Difficulty:  req.Difficulty,
		Status:      models.SessionNotStarted,
	}
	if err := o.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	o.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("candidate_id", candidateID),
		zap.String("role", req.TargetRole),
		zap.String("difficulty", req.Difficulty))
	return session, nil
}

// Get loads a session scoped to its owner. A wrong candidate gets the same
// not-found as a missing session.
func (o *Orchestrator) Get(ctx context.Context, sessionID, candidateID string) (*models.Session, error) {
	var session models.Session
	err := o.db.WithContext(ctx).
		Where("id = ? AND candidate_id = ?", sessionID, candidateID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// StartRound starts (or re-enters) a round, enforcing the fixed order.
func (o *Orchestrator) StartRound(ctx context.Context, session *models.Session, kind models.RoundKind) (*models.RoundSnapshot, error) {
	if !kind.Valid() {
		return nil, rounds.ErrUnknownRound
	}
	if !statusIn(session.Status, startAllowed[kind]) {
		return nil, fmt.Errorf("%w: cannot start %s round from status %s",
			ErrInvalidTransition, kind, session.Status)
	}

	snap, err := o.rounds.Start(ctx, session, kind)
	if err != nil {
		return nil, err
	}

	switch snap.Status {
	case models.RoundInProgress:
		if err := o.setStatus(ctx, session, activeStatus[kind]); err != nil {
			return nil, err
		}
	case models.RoundCompleted:
		// Re-entering a round that sealed (deadline) while the session
		// status lagged behind.
		if err := o.onRoundSealed(ctx, session, kind); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Submit forwards an answer to the round state machine and advances the
// session when the round seals.
func (o *Orchestrator) Submit(ctx context.Context, session *models.Session, kind models.RoundKind, req *models.SubmitRequest) (*models.SubmitResult, error) {
	if !kind.Valid() {
		return nil, rounds.ErrUnknownRound
	}
	if session.Status != activeStatus[kind] {
		return nil, fmt.Errorf("%w: %s round is not active (session status %s)",
			ErrInvalidTransition, kind, session.Status)
	}

	result, err := o.rounds.Submit(ctx, session, kind, req)
	if errors.Is(err, rounds.ErrDeadlineExceeded) {
		if syncErr := o.onRoundSealed(ctx, session, kind); syncErr != nil {
			return nil, syncErr
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if result.Completed {
		if err := o.onRoundSealed(ctx, session, kind); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RoundStatus returns the snapshot for one round, keeping the session
// status in sync if the read sealed an expired round.
func (o *Orchestrator) RoundStatus(ctx context.Context, session *models.Session, kind models.RoundKind) (*models.RoundSnapshot, error) {
	if !kind.Valid() {
		return nil, rounds.ErrUnknownRound
	}
	snap, err := o.rounds.Status(ctx, session, kind)
	if err != nil {
		return nil, err
	}
	if snap.Status == models.RoundCompleted && session.Status == activeStatus[kind] {
		if err := o.onRoundSealed(ctx, session, kind); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Resume rebuilds the client view entirely from persisted state. Calling
// it any number of times changes nothing.
func (o *Orchestrator) Resume(ctx context.Context, session *models.Session) (*models.CurrentView, error) {
	view := &models.CurrentView{
		SessionID:     session.ID,
		Status:        session.Status,
		TargetRole:    session.TargetRole,
		Difficulty:    session.Difficulty,
		RoundStatuses: make(map[models.RoundKind]models.RoundStatus, len(models.RoundOrder)),
	}

	var sessionRounds []models.Round
	if err := o.db.WithContext(ctx).
		Where("session_id = ?", session.ID).
		Find(&sessionRounds).Error; err != nil {
		return nil, err
	}
	byKind := make(map[models.RoundKind]*models.Round, len(sessionRounds))
	for i := range sessionRounds {
		byKind[sessionRounds[i].Kind] = &sessionRounds[i]
	}
	for _, kind := range models.RoundOrder {
		if r, ok := byKind[kind]; ok {
			view.RoundStatuses[kind] = r.Status
		} else {
			view.RoundStatuses[kind] = models.RoundNotStarted
		}
	}

	if active, ok := activeKind(session.Status); ok {
		snap, err := o.RoundStatus(ctx, session, active)
		if err != nil {
			return nil, err
		}
		view.Round = snap
		view.RoundStatuses[active] = snap.Status
		view.Status = session.Status
		if snap.Status == models.RoundCompleted {
			if next, ok := nextRound(active); ok {
				view.NextRound = &next
			}
		}
	} else if next, ok := pendingRound(session.Status); ok {
		view.NextRound = &next
	}

	pending, err := o.pendingEvaluations(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	view.PendingItems = pending

	var reportCount int64
	if err := o.db.WithContext(ctx).Model(&models.HiringReport{}).
		Where("session_id = ?", session.ID).Count(&reportCount).Error; err != nil {
		return nil, err
	}
	view.ReportReady = reportCount > 0

	return view, nil
}

// SyncExpired seals rounds past their deadline and advances the owning
// sessions; then retries report finalization for sessions waiting on
// stragglers. Called from the cron sweeper.
func (o *Orchestrator) SyncExpired(ctx context.Context) error {
	sealed, err := o.rounds.ForceCompleteExpired(ctx)
	if err != nil {
		return err
	}
	for i := range sealed {
		var session models.Session
		if err := o.db.WithContext(ctx).First(&session, "id = ?", sealed[i].SessionID).Error; err != nil {
			o.logger.Error("sealed round has no session",
				zap.String("session_id", sealed[i].SessionID), zap.Error(err))
			continue
		}
		if session.Status != activeStatus[sealed[i].Kind] {
			continue
		}
		if err := o.onRoundSealed(ctx, &session, sealed[i].Kind); err != nil {
			return err
		}
	}
	return o.FinalizePending(ctx)
}

// FinalizePending retries report generation for sessions whose coding
// round sealed while evaluations were still in flight.
func (o *Orchestrator) FinalizePending(ctx context.Context) error {
	var waiting []models.Session
	if err := o.db.WithContext(ctx).
		Where("status = ?", models.SessionCodingCompleted).
		Find(&waiting).Error; err != nil {
		return err
	}
	for i := range waiting {
		if err := o.tryFinalize(ctx, &waiting[i]); err != nil {
			o.logger.Error("report finalization failed",
				zap.String("session_id", waiting[i].ID), zap.Error(err))
		}
	}
	return nil
}

// onRoundSealed advances the session status past a completed round, and
// kicks off report finalization after the last one.
func (o *Orchestrator) onRoundSealed(ctx context.Context, session *models.Session, kind models.RoundKind) error {
	if err := o.setStatus(ctx, session, completedStatus[kind]); err != nil {
		return err
	}
	if kind == models.RoundCoding {
		return o.tryFinalize(ctx, session)
	}
	return nil
}

// tryFinalize computes and persists the hiring report once every
// evaluation for the session has reached a terminal state. Until then the
// session stays in coding_completed and the sweeper retries.
func (o *Orchestrator) tryFinalize(ctx context.Context, session *models.Session) error {
	var inflight int64
	if err := o.db.WithContext(ctx).Model(&models.EvaluationJob{}).
		Where("session_id = ? AND status IN ?", session.ID,
			[]models.JobStatus{models.JobQueued, models.JobEvaluating}).
		Count(&inflight).Error; err != nil {
		return err
	}
	if inflight > 0 {
		o.logger.Debug("report deferred, evaluations in flight",
			zap.String("session_id", session.ID), zap.Int64("pending", inflight))
		return nil
	}

	var finalRounds []models.Round
	if err := o.db.WithContext(ctx).
		Where("session_id = ?", session.ID).
		Find(&finalRounds).Error; err != nil {
		return err
	}
	var scores report.Scores
	for _, r := range finalRounds {
		switch r.Kind {
		case models.RoundTechnical:
			scores.Technical = r.Score
		case models.RoundHR:
			scores.HR = r.Score
		case models.RoundCoding:
			scores.Coding = r.Score
		}
	}

	signals, err := o.integrity.Count(ctx, session.ID)
	if err != nil {
		return err
	}

	result := report.Aggregate(scores, int(signals), o.cfg)
	if err := o.reports.Save(ctx, session.ID, result); err != nil {
		return err
	}
	if err := o.setStatus(ctx, session, models.SessionCompleted); err != nil {
		return err
	}

	o.logger.Info("hiring report finalized",
		zap.String("session_id", session.ID),
		zap.Float64("overall", result.Overall),
		zap.String("decision", result.Decision))
	return nil
}

// setStatus persists a status transition and mirrors it on the in-memory
// session.
func (o *Orchestrator) setStatus(ctx context.Context, session *models.Session, status models.SessionStatus) error {
	if session.Status == status {
		return nil
	}
	if err := o.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", session.ID).
		Update("status", status).Error; err != nil {
		return err
	}
	session.Status = status
	return nil
}

// OwnsItem reports whether an item belongs to one of the session's
// rounds; item-scoped endpoints check this before touching item state.
func (o *Orchestrator) OwnsItem(ctx context.Context, sessionID, itemID string) (bool, error) {
	var count int64
	err := o.db.WithContext(ctx).Model(&models.Item{}).
		Joins("JOIN rounds ON rounds.id = items.round_id").
		Where("rounds.session_id = ? AND items.id = ?", sessionID, itemID).
		Count(&count).Error
	return count > 0, err
}

// pendingEvaluations lists answered items whose evaluation has not
// resolved yet, in round/position order.
func (o *Orchestrator) pendingEvaluations(ctx context.Context, sessionID string) ([]string, error) {
	var ids []string
	err := o.db.WithContext(ctx).Model(&models.Item{}).
		Joins("JOIN rounds ON rounds.id = items.round_id").
		Where("rounds.session_id = ? AND items.answer IS NOT NULL AND items.evaluation_id IS NULL", sessionID).
		Order("items.round_id ASC, items.position ASC").
		Pluck("items.id", &ids).Error
	return ids, err
}

func activeKind(status models.SessionStatus) (models.RoundKind, bool) {
	for kind, s := range activeStatus {
		if s == status {
			return kind, true
		}
	}
	return "", false
}

// pendingRound maps a between-rounds status to the round the candidate
// should start next.
func pendingRound(status models.SessionStatus) (models.RoundKind, bool) {
	switch status {
	case models.SessionNotStarted:
		return models.RoundTechnical, true
	case models.SessionTechnicalCompleted:
		return models.RoundHR, true
	case models.SessionHRCompleted:
		return models.RoundCoding, true
	}
	return "", false
}

func nextRound(kind models.RoundKind) (models.RoundKind, bool) {
	for i, k := range models.RoundOrder {
		if k == kind && i+1 < len(models.RoundOrder) {
			return models.RoundOrder[i+1], true
		}
	}
	return "", false
}

func statusIn(status models.SessionStatus, allowed []models.SessionStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}
