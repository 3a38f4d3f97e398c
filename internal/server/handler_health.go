package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/me/jobrun/internal/store"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	Jobs      int    `json:"jobs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     storeKind(s.store),
		Jobs:      len(s.conf.Jobs),
	})
}

func storeKind(st store.Store) string {
	switch st.(type) {
	case nil:
		return "none"
	case *store.SQLiteStore:
		return "sqlite"
	case *store.JSONStore:
		return "json"
	default:
		return "custom"
	}
}
