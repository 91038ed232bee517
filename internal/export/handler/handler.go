package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attribune/internal/export/service"
	"attribune/internal/http/shared"
	"attribune/pkg/requestcontext"
)

// Handler exposes the read-only export surface.
type Handler struct {
	exports *service.Service
	logger  *slog.Logger
}

// New creates an export Handler.
func New(exports *service.Service, logger *slog.Logger) *Handler {
	return &Handler{exports: exports, logger: logger}
}

// Register mounts the export routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/exports/top-tracks.csv", h.handleTopTracks)
	r.Get("/compliance/report", h.handleCompliance)
}

func (h *Handler) handleTopTracks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="top-tracks.csv"`)
	if err := h.exports.WriteTopTracksCSV(ctx, w); err != nil {
		// Headers may already be out; log and give up on this response.
		h.logger.ErrorContext(ctx, "top tracks export failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}

func (h *Handler) handleCompliance(w http.ResponseWriter, r *http.Request) {
	report, err := h.exports.Compliance(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, report)
}
