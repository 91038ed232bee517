package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attribune/internal/catalog/models"
	"attribune/internal/catalog/service"
	"attribune/internal/http/shared"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// Handler exposes catalog administration. Registration is operator-only,
// guarded by the admin token like partner registration.
type Handler struct {
	catalog    *service.Service
	logger     *slog.Logger
	adminToken string
}

// New creates a catalog Handler.
func New(catalog *service.Service, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{catalog: catalog, logger: logger, adminToken: adminToken}
}

// Register mounts the catalog routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/catalog/works", h.handleUpsert)
	r.Get("/catalog/works/{workID}", h.handleGet)
}

type upsertRequest struct {
	WorkID         string `json:"work_id"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	RightsHolderID string `json:"rights_holder_id"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "catalog administration is disabled"))
		return
	}
	provided := r.Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.adminToken)) != 1 {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid admin token"))
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	workID, err := id.ParseWorkID(req.WorkID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	holder, err := id.ParseRightsHolderID(req.RightsHolderID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	work, err := models.NewWork(workID, req.Title, req.Artist, holder)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.catalog.Register(r.Context(), work); err != nil {
		h.logger.ErrorContext(r.Context(), "catalog upsert failed", "work_id", req.WorkID, "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"work": work})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	workID, err := id.ParseWorkID(chi.URLParam(r, "workID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	work, err := h.catalog.Lookup(r.Context(), workID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"work": work})
}
