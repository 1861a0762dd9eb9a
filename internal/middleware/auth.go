package middleware

import (
	"context"
	"net/http"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

const candidateIDKey contextKey = "candidate_id"

// Authenticate validates the bearer token and stores the candidate id
// from its "sub" claim in the request context. Every session route is
// scoped to this candidate.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := utils.VerifyToken(r, secret)
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Code:    "unauthorized",
					Message: err.Error(),
				})
				return
			}

			candidateID, err := utils.GetCandidateIDFromClaims(claims)
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Code:    "unauthorized",
					Message: err.Error(),
				})
				return
			}

			ctx := context.WithValue(r.Context(), candidateIDKey, candidateID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCandidateID retrieves the authenticated candidate id from context.
func GetCandidateID(r *http.Request) string {
	id, _ := r.Context().Value(candidateIDKey).(string)
	return id
}
