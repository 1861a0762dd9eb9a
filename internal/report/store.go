package report

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

var ErrNotReady = errors.New("hiring report not ready")

// Store persists one HiringReport per session so views never recompute.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save persists the aggregated result. The unique session index makes the
// write idempotent: a concurrent duplicate computation is a no-op.
func (s *Store) Save(ctx context.Context, sessionID string, result Result) error {
	strengths, err := json.Marshal(result.Strengths)
	if err != nil {
		return err
	}
	weaknesses, err := json.Marshal(result.Weaknesses)
	if err != nil {
		return err
	}

	row := models.HiringReport{
		SessionID:        sessionID,
		TechnicalScore:   result.Scores.Technical,
		HRScore:          result.Scores.HR,
		CodingScore:      result.Scores.Coding,
		Overall:          result.Overall,
		IntegrityPenalty: result.IntegrityPenalty,
		Decision:         result.Decision,
		Strengths:        string(strengths),
		Weaknesses:       string(weaknesses),
		ImprovementPlan:  result.ImprovementPlan,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(&row).Error
}

// Get returns the persisted report view, or ErrNotReady if the session has
// not completed.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.ReportView, error) {
	var row models.HiringReport
	err := s.db.WithContext(ctx).First(&row, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotReady
	}
	if err != nil {
		return nil, err
	}

	view := &models.ReportView{
		SessionID: row.SessionID,
		RoundScores: map[models.RoundKind]float64{
			models.RoundTechnical: row.TechnicalScore,
			models.RoundHR:        row.HRScore,
			models.RoundCoding:    row.CodingScore,
		},
		Overall:          row.Overall,
		IntegrityPenalty: row.IntegrityPenalty,
		Decision:         row.Decision,
		ImprovementPlan:  row.ImprovementPlan,
		CreatedAt:        row.CreatedAt,
	}
	_ = json.Unmarshal([]byte(row.Strengths), &view.Strengths)
	_ = json.Unmarshal([]byte(row.Weaknesses), &view.Weaknesses)
	return view, nil
}
