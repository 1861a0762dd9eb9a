package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/drafts"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/middleware"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/session"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

type DraftHandler struct {
	orchestrator *session.Orchestrator
	sessions     *SessionHandler
	store        *drafts.Store
	logger       *zap.Logger
}

func NewDraftHandler(orchestrator *session.Orchestrator, sessions *SessionHandler, store *drafts.Store, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		orchestrator: orchestrator,
		sessions:     sessions,
		store:        store,
		logger:       logger,
	}
}

func (h *DraftHandler) ownedItem(w http.ResponseWriter, r *http.Request) (sessionID, itemID string, ok bool) {
	sess, ok := h.sessions.loadSession(w, r)
	if !ok {
		return "", "", false
	}
	itemID = chi.URLParam(r, "itemID")

	owns, err := h.orchestrator.OwnsItem(r.Context(), sess.ID, itemID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return "", "", false
	}
	if !owns {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code: "item_not_found", Message: "Item does not belong to this session",
		})
		return "", "", false
	}
	return sess.ID, itemID, true
}

// SaveHandler overwrites the draft for an item. Drafts are a convenience
// cache: losing one never loses a submitted answer.
func (h *DraftHandler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.DraftRequest](r)

	if err := h.store.Save(r.Context(), sessionID, itemID, req.Content); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *DraftHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	content, err := h.store.Get(r.Context(), sessionID, itemID)
	if errors.Is(err, drafts.ErrNoDraft) {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code: "draft_not_found", Message: "No draft stored for this item",
		})
		return
	}
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"content": content})
}
