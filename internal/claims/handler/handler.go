package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attribune/internal/claims/models"
	"attribune/internal/claims/service"
	"attribune/internal/http/shared"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/requestcontext"
)

// Handler exposes claim creation and the external decision endpoint.
type Handler struct {
	claims *service.Service
	logger *slog.Logger
}

// New creates a claims Handler.
func New(claims *service.Service, logger *slog.Logger) *Handler {
	return &Handler{claims: claims, logger: logger}
}

// Register mounts the claim routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/claims/create", h.handleCreate)
	r.Post("/claims/{claimID}/decision", h.handleDecision)
	r.Get("/claims/{claimID}", h.handleGet)
}

type createRequest struct {
	ResultID string `json:"result_id"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	resultID, err := id.ParseResultID(req.ResultID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	claim, err := h.claims.Build(ctx, resultID)
	if err != nil {
		h.logger.WarnContext(ctx, "claim creation failed",
			"result_id", req.ResultID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{"claim": claim})
}

type decisionRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	claim, err := h.claims.Decide(ctx, claimID, status)
	if err != nil {
		h.logger.WarnContext(ctx, "claim decision rejected",
			"claim_id", claimID.String(),
			"status", req.Status,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{"claim": claim})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	claim, err := h.claims.Get(r.Context(), claimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"claim": claim})
}
