package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// newsDefaultLimit caps headline responses when the caller does not ask
// for a specific count
const newsDefaultLimit = 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil || !s.news.Configured() {
		writeError(w, http.StatusServiceUnavailable, "news provider not configured")
		return
	}

	query := r.URL.Query().Get("q")
	limit := newsDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	items, err := s.news.FetchHeadlines(r.Context(), query, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Headlines fetch failed")
		writeError(w, http.StatusBadGateway, "headlines unavailable")
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusOK, []interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, s.events.Recent())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
