package options

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes the scan service over HTTP
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates an options handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "options").Logger(),
	}
}

// RegisterRoutes mounts the options routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/options/{symbol}", h.handleScan)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	result, err := h.service.Scan(r.Context(), symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Scan failed")
		writeError(w, http.StatusBadGateway, "scan failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
