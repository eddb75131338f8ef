package history

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes snapshot history over HTTP
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a history handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "history").Logger(),
	}
}

// RegisterRoutes mounts the history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/history/{symbol}", h.handleHistory)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	snapshots, err := h.service.Snapshots(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("History query failed")
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if snapshots == nil {
		snapshots = []StockSnapshot{}
	}

	writeJSON(w, http.StatusOK, snapshots)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
