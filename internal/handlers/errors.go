package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/questions"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/report"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/rounds"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/session"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

// writeDomainError maps service-layer sentinel errors onto the JSON error
// contract. Unknown errors become an opaque 500; the detail goes to the
// log, not the client.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code: "session_not_found", Message: "Session does not exist",
		})
	case errors.Is(err, session.ErrInvalidTransition):
		utils.JSON(w, http.StatusConflict, models.ErrorResponse{
			Code: "invalid_transition", Message: "Rounds must be taken in order: technical, hr, coding",
		})
	case errors.Is(err, rounds.ErrInvalidItem):
		utils.JSON(w, http.StatusConflict, models.ErrorResponse{
			Code: "invalid_item", Message: "Submitted item is not the current item",
		})
	case errors.Is(err, rounds.ErrRoundNotStarted):
		utils.JSON(w, http.StatusConflict, models.ErrorResponse{
			Code: "round_not_started", Message: "Round has not been started",
		})
	case errors.Is(err, rounds.ErrRoundCompleted):
		utils.JSON(w, http.StatusConflict, models.ErrorResponse{
			Code: "round_completed", Message: "Round is already completed",
		})
	case errors.Is(err, rounds.ErrDeadlineExceeded):
		utils.JSON(w, http.StatusConflict, models.ErrorResponse{
			Code: "deadline_exceeded", Message: "Round deadline has passed; the round was completed",
		})
	case errors.Is(err, rounds.ErrUnknownRound):
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code: "unknown_round", Message: "Round kind must be one of: technical, hr, coding",
		})
	case errors.Is(err, questions.ErrNoItems):
		utils.JSON(w, http.StatusServiceUnavailable, models.ErrorResponse{
			Code: "generation_unavailable", Message: "Could not generate interview items, try again later",
		})
	case errors.Is(err, report.ErrNotReady):
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code: "report_not_ready", Message: "Hiring report is not available yet",
		})
	default:
		logger.Error("unhandled service error", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code: "internal_error", Message: "Internal server error",
		})
	}
}
