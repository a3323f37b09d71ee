package api

import (
	"net/http"
	"time"
)

type runResponse struct {
	RunID   string `json:"run_id"`
	Slot    string `json:"slot"`
	Entries int    `json:"entries"`
}

func (s *Server) handleRunPrompts(w http.ResponseWriter, r *http.Request) {
	res, err := s.prompts.Generate(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{RunID: res.RunID, Slot: res.Slot, Entries: len(res.Deliveries)})
}

func (s *Server) handleLastRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.prompts.LastRun(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if run == nil {
		writeJSON(w, http.StatusOK, map[string]any{"run": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     run.RunID,
		"slot":       run.Slot,
		"users":      run.Users,
		"created_at": run.CreatedAt.UTC().Format(time.RFC3339),
	})
}
