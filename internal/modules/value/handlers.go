package value

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes the value analyzer over HTTP
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a value handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "value").Logger(),
	}
}

// RegisterRoutes mounts the value routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/value/{symbol}", h.handleAnalyze)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	analysis, err := h.service.Analyze(r.Context(), symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Value analysis failed")
		writeError(w, http.StatusBadGateway, "value analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
