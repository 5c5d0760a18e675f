package statusapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleGetStatus serves GET /status/{id}[?refresh=1].
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		badRequest(w, "missing id")
		return
	}

	refresh := r.URL.Query().Get("refresh") == "1"
	status := s.svc.GetStatus(r.Context(), id, refresh)
	jsonResponse(w, status)
}

// handleGetStatusMany serves GET /status?ids=a,b,c[&refresh=1].
func (s *Server) handleGetStatusMany(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		badRequest(w, "missing ids")
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		badRequest(w, "missing ids")
		return
	}

	refresh := r.URL.Query().Get("refresh") == "1"
	results := s.svc.GetStatusMany(r.Context(), ids, refresh)
	jsonResponse(w, results)
}
