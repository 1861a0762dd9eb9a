package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/report"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

type ReportHandler struct {
	sessions *SessionHandler
	reports  *report.Store
	logger   *zap.Logger
}

func NewReportHandler(sessions *SessionHandler, reports *report.Store, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{sessions: sessions, reports: reports, logger: logger}
}

// GetHandler serves the persisted hiring report. 404 until the session
// has completed and all evaluations resolved.
func (h *ReportHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.loadSession(w, r)
	if !ok {
		return
	}

	view, err := h.reports.Get(r.Context(), sess.ID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}
