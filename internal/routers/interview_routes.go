package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/handlers"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/middleware"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

// Handlers bundles the endpoint handlers wired by the interview routes.
type Handlers struct {
	Sessions    *handlers.SessionHandler
	Rounds      *handlers.RoundHandler
	Evaluations *handlers.EvaluationHandler
	Drafts      *handlers.DraftHandler
	Integrity   *handlers.IntegrityHandler
	Reports     *handlers.ReportHandler
}

func InterviewRoutes(router *chi.Mux, h Handlers, jwtSecret string) {
	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.With(middleware.ValidateRequest[models.CreateSessionRequest]()).Post("/", h.Sessions.CreateHandler)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/resume", h.Sessions.ResumeHandler)

			r.Route("/rounds/{kind}", func(r chi.Router) {
				r.Post("/start", h.Rounds.StartHandler)
				r.With(middleware.ValidateRequest[models.SubmitRequest]()).Post("/submit", h.Rounds.SubmitHandler)
			})

			r.Route("/items/{itemID}", func(r chi.Router) {
				r.Get("/evaluation", h.Evaluations.StatusHandler)
				r.With(middleware.ValidateRequest[models.DraftRequest]()).Put("/draft", h.Drafts.SaveHandler)
				r.Get("/draft", h.Drafts.GetHandler)
			})

			r.With(middleware.ValidateRequest[models.IntegrityRequest]()).Post("/integrity", h.Integrity.RecordHandler)
			r.Get("/report", h.Reports.GetHandler)
		})
	})
}
