package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/jobrun/pkg/model"
)

// jobView is a resolved job plus its current eligibility.
type jobView struct {
	model.Job
	Overriding bool `json:"overriding"`
	CanRun     bool `json:"can_run"`
	ShouldRun  bool `json:"should_run"`
}

func newJobView(job model.Job) jobView {
	return jobView{
		Job:        job,
		Overriding: job.IsOverriding(),
		CanRun:     job.CanRun(),
		ShouldRun:  job.ShouldRun(),
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	views := make([]jobView, 0, len(s.conf.Jobs))
	for _, job := range s.conf.Jobs {
		views = append(views, newJobView(job))
	}
	respondOK(w, reqID, views)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	job, ok := s.conf.Lookup(name)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("job", name))
		return
	}
	respondOK(w, reqID, newJobView(job))
}
