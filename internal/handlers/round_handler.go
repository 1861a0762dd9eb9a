package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/drafts"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/middleware"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/rounds"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/session"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

type RoundHandler struct {
	orchestrator *session.Orchestrator
	sessions     *SessionHandler
	drafts       *drafts.Store
	logger       *zap.Logger
}

func NewRoundHandler(orchestrator *session.Orchestrator, sessions *SessionHandler, drafts *drafts.Store, logger *zap.Logger) *RoundHandler {
	return &RoundHandler{orchestrator: orchestrator, sessions: sessions, drafts: drafts, logger: logger}
}

func roundKind(r *http.Request) (models.RoundKind, bool) {
	kind := models.RoundKind(chi.URLParam(r, "kind"))
	return kind, kind.Valid()
}

func (h *RoundHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.loadSession(w, r)
	if !ok {
		return
	}
	kind, ok := roundKind(r)
	if !ok {
		writeDomainError(w, h.logger, rounds.ErrUnknownRound)
		return
	}

	snap, err := h.orchestrator.StartRound(r.Context(), sess, kind)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, snap)
}

func (h *RoundHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.loadSession(w, r)
	if !ok {
		return
	}
	kind, ok := roundKind(r)
	if !ok {
		writeDomainError(w, h.logger, rounds.ErrUnknownRound)
		return
	}
	req := middleware.GetValidatedRequest[*models.SubmitRequest](r)

	result, err := h.orchestrator.Submit(r.Context(), sess, kind, req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	// The submitted answer supersedes any stored draft.
	if err := h.drafts.Delete(r.Context(), sess.ID, req.ItemID); err != nil {
		h.logger.Warn("failed to clear draft after submission",
			zap.String("item_id", req.ItemID), zap.Error(err))
	}

	utils.JSON(w, http.StatusOK, result)
}
