package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/middleware"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/session"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

type SessionHandler struct {
	orchestrator *session.Orchestrator
	logger       *zap.Logger
}

func NewSessionHandler(orchestrator *session.Orchestrator, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{orchestrator: orchestrator, logger: logger}
}

// loadSession resolves the {sessionID} route param against the
// authenticated candidate. Writes the error response itself on failure.
func (h *SessionHandler) loadSession(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	candidateID := middleware.GetCandidateID(r)

	sess, err := h.orchestrator.Get(r.Context(), sessionID, candidateID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateSessionRequest](r)
	candidateID := middleware.GetCandidateID(r)

	sess, err := h.orchestrator.Create(r.Context(), candidateID, req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, sess)
}

// ResumeHandler returns the full client view derived from persisted
// state. Safe to call any number of times.
func (h *SessionHandler) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	view, err := h.orchestrator.Resume(r.Context(), sess)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}
