package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/session"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

// EvaluationStatuser is the read side of the evaluation dispatcher.
type EvaluationStatuser interface {
	Status(ctx context.Context, itemID string) (*models.EvaluationView, error)
}

type EvaluationHandler struct {
	orchestrator *session.Orchestrator
	sessions     *SessionHandler
	evaluations  EvaluationStatuser
	logger       *zap.Logger
}

func NewEvaluationHandler(orchestrator *session.Orchestrator, sessions *SessionHandler, evaluations EvaluationStatuser, logger *zap.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		orchestrator: orchestrator,
		sessions:     sessions,
		evaluations:  evaluations,
		logger:       logger,
	}
}

// StatusHandler is the polling endpoint: it reports the last known state
// and never waits for in-flight grading.
func (h *EvaluationHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.loadSession(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	owns, err := h.orchestrator.OwnsItem(r.Context(), sess.ID, itemID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if !owns {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code: "item_not_found", Message: "Item does not belong to this session",
		})
		return
	}

	view, err := h.evaluations.Status(r.Context(), itemID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}
