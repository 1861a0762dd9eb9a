package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/integrity"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/middleware"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

type IntegrityHandler struct {
	sessions *SessionHandler
	recorder *integrity.Recorder
	logger   *zap.Logger
}

func NewIntegrityHandler(sessions *SessionHandler, recorder *integrity.Recorder, logger *zap.Logger) *IntegrityHandler {
	return &IntegrityHandler{sessions: sessions, recorder: recorder, logger: logger}
}

// RecordHandler appends one signal. Recording never blocks or rejects the
// candidate's action; the signal only feeds the final report.
func (h *IntegrityHandler) RecordHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.loadSession(w, r)
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.IntegrityRequest](r)

	if err := h.recorder.Record(r.Context(), sess.ID, req.ItemID, req.Type); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}
