package integrity

import (
	"context"

	"gorm.io/gorm"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

// Recorder appends behavioral signals to the session's integrity log.
// Recording never rejects the action that produced the signal; the log is
// read only by the report aggregator.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Record(ctx context.Context, sessionID string, itemID *string, signalType models.SignalType) error {
	signal := models.IntegritySignal{
		SessionID: sessionID,
		ItemID:    itemID,
		Type:      signalType,
	}
	return r.db.WithContext(ctx).Create(&signal).Error
}

// Count returns the number of signals recorded for a session.
func (r *Recorder) Count(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.IntegritySignal{}).
		Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}

// List returns the session's signals in insertion order.
func (r *Recorder) List(ctx context.Context, sessionID string) ([]models.IntegritySignal, error) {
	var signals []models.IntegritySignal
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&signals).Error
	return signals, err
}
