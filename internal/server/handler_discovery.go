package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "jobrun API",
		Version:     "v1",
		Description: "Read-only view of configured jobs and their execution stats",
		Endpoints: []endpointInfo{
			{"/api/v1/jobs", []string{"GET"}, "Resolved jobs with their run eligibility"},
			{"/api/v1/jobs/{name}", []string{"GET"}, "Single resolved job"},
			{"/api/v1/stats", []string{"GET"}, "Stats rows diffed against the reference job"},
			{"/api/v1/stats/table", []string{"GET"}, "Stats rendered as a text table"},
			{"/api/v1/stats/{name}/history", []string{"GET"}, "Every recorded execution of a job (SQLite stats only)"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
