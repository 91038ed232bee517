package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attribune/internal/http/shared"
	"attribune/internal/royalty/service"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/requestcontext"
)

// Handler exposes settlement.
type Handler struct {
	royalties *service.Service
	logger    *slog.Logger
}

// New creates a royalty Handler.
func New(royalties *service.Service, logger *slog.Logger) *Handler {
	return &Handler{royalties: royalties, logger: logger}
}

// Register mounts the royalty routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/royalties/settle", h.handleSettle)
	r.Get("/royalties/{claimID}", h.handleGet)
}

type settleRequest struct {
	ClaimID string `json:"claim_id"`
}

func (h *Handler) handleSettle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	claimID, err := id.ParseClaimID(req.ClaimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	royalty, err := h.royalties.Settle(ctx, claimID)
	if err != nil {
		h.logger.WarnContext(ctx, "settlement rejected",
			"claim_id", req.ClaimID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{"royalty_event": royalty})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	royalty, err := h.royalties.GetByClaim(r.Context(), claimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"royalty_event": royalty})
}
