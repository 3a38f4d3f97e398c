package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/jobrun/internal/stats"
	"github.com/me/jobrun/internal/store"
	"github.com/me/jobrun/pkg/model"
)

type statsResponse struct {
	Reference      string      `json:"reference"`
	ReferenceFound bool        `json:"reference_found"`
	Rows           []stats.Row `json:"rows"`
}

// formatter loads the current stats. A server without a store reports none.
func (s *Server) formatter(r *http.Request) (stats.Formatter, error) {
	f := stats.Formatter{
		Stats:         map[string]model.Stat{},
		ReferenceName: s.conf.StatsReference,
		Order:         s.conf.Names(),
	}
	if s.store == nil {
		return f, nil
	}
	loaded, err := s.store.Load(r.Context())
	if err != nil {
		return f, err
	}
	f.Stats = loaded
	return f, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	f, err := s.formatter(r)
	if err != nil {
		s.logger.Error("load stats", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	_, found := f.Reference()
	respondOK(w, reqID, statsResponse{
		Reference:      f.ReferenceName,
		ReferenceFound: found,
		Rows:           f.Rows(),
	})
}

func (s *Server) handleStatsTable(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	f, err := s.formatter(r)
	if err != nil {
		s.logger.Error("load stats", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, f.Run())
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	hs, ok := s.store.(store.HistoryStore)
	if !ok {
		respondError(w, reqID, http.StatusNotImplemented, &model.APIError{
			Code:    model.ErrUnsupported,
			Message: "stats history requires a SQLite stats file",
		})
		return
	}

	records, err := hs.History(r.Context(), name)
	if err != nil {
		s.logger.Error("load history", "job", name, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	respondOK(w, reqID, records)
}
