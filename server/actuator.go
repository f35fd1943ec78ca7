package server

import (
	"context"
	"encoding/json"
	"net/http"
)

// A Refresher reloads refreshable configuration and reports the keys that changed.
type Refresher interface {
	Refresh(ctx context.Context) ([]string, error)
}

type RefresherFunc func(ctx context.Context) ([]string, error)

func (f RefresherFunc) Refresh(ctx context.Context) ([]string, error) { return f(ctx) }

type buildInfo struct {
	Version   string `json:"version"`
	Builder   string `json:"builder"`
	Time      string `json:"time"`
	GoVersion string `json:"goVersion"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":   map[string]string{"name": s.name},
		"build": s.build,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	changed, err := s.refresher.Refresh(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "refresh failed", "err", err)
		EncodeCodedErrorsResponse(r.Context(), err, w)
		return
	}
	if changed == nil {
		changed = []string{}
	}
	s.logger.Info(r.Context(), "configuration refreshed", "changed", changed)
	writeJSON(w, http.StatusOK, changed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
