package movers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes the movers list over HTTP
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a movers handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "movers").Logger(),
	}
}

// RegisterRoutes mounts the movers routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/movers", h.handleMovers)
}

func (h *Handler) handleMovers(w http.ResponseWriter, r *http.Request) {
	movers, err := h.service.Fetch(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Movers fetch failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "movers fetch failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(movers)
}
