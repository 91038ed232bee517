package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attribune/internal/http/shared"
	"attribune/internal/ingest/models"
	"attribune/internal/ingest/service"
	"attribune/internal/platform/middleware"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/requestcontext"
)

// Handler accepts SDK generation logs.
type Handler struct {
	ingest    *service.Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// New creates an ingest Handler.
func New(ingest *service.Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{ingest: ingest, logger: logger, validator: validator}
}

// Register mounts the SDK routes. The partner token names the source system;
// a source_system_id in the body that disagrees with the token is rejected.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePartnerAuth(h.validator, h.logger))
		r.Use(middleware.ClientMetadata)
		r.Post("/sdk/log", h.handleLog)
	})
}

type logRequest struct {
	SourceSystemID   string `json:"source_system_id,omitempty"`
	ModelID          string `json:"model_id"`
	Fingerprint      string `json:"fingerprint"`
	IdempotencyToken string `json:"idempotency_token"`
}

type logResponse struct {
	Event *models.GenerationEvent `json:"event"`
}

func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partnerID := requestcontext.PartnerID(ctx)
	if partnerID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req logRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.SourceSystemID != "" && req.SourceSystemID != partnerID.String() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "source_system_id does not match the authenticated partner"))
		return
	}

	event, err := h.ingest.Submit(ctx, partnerID, req.ModelID, req.Fingerprint, req.IdempotencyToken)
	if err != nil {
		h.logger.WarnContext(ctx, "sdk log rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, logResponse{Event: event})
}
