package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talentflow/dataservice/internal/sim"
)

func NewRouter(s *sim.Simulator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	h := NewHandlers(s)

	r.Get("/health", h.Health)

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.ListJobs)
		r.Post("/", h.CreateJob)
		r.Get("/{id}", h.GetJob)
		r.Patch("/{id}", h.UpdateJob)
		r.Patch("/{id}/reorder", h.ReorderJob)
	})

	r.Route("/candidates", func(r chi.Router) {
		r.Get("/", h.ListCandidates)
		r.Post("/", h.CreateCandidate)
		r.Get("/{id}", h.GetCandidate)
		r.Patch("/{id}", h.SetCandidateStage)
		r.Get("/{id}/timeline", h.GetTimeline)
	})

	r.Route("/assessments", func(r chi.Router) {
		r.Get("/{jobId}", h.GetAssessment)
		r.Put("/{jobId}", h.SaveAssessment)
		r.Post("/{jobId}/submit", h.SubmitResponse)
	})

	return r
}
