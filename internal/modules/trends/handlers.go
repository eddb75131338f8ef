package trends

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes sector trends and the macro summary over HTTP
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a trends handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trends").Logger(),
	}
}

// RegisterRoutes mounts the trends routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/trends/sectors", h.handleSectors)
	r.Get("/trends/sectors/enhanced", h.handleEnhanced)
	r.Get("/macro", h.handleMacro)
}

func (h *Handler) handleSectors(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Sectors(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Sector stats query failed")
		writeError(w, http.StatusInternalServerError, "sector stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleEnhanced(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Enhanced(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Enhanced sector stats query failed")
		writeError(w, http.StatusInternalServerError, "sector stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleMacro(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Macro(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Macro summary query failed")
		writeError(w, http.StatusInternalServerError, "macro summary unavailable")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
