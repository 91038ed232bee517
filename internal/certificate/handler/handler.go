package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attribune/internal/certificate/service"
	"attribune/internal/http/shared"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/requestcontext"
)

// Handler exposes certificate issuance.
type Handler struct {
	certs  *service.Service
	logger *slog.Logger
}

// New creates a certificate Handler.
func New(certs *service.Service, logger *slog.Logger) *Handler {
	return &Handler{certs: certs, logger: logger}
}

// Register mounts the certificate routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/proof/certificate", h.handleIssue)
	r.Get("/proof/certificate/{claimID}", h.handleGet)
}

type issueRequest struct {
	ClaimID string `json:"claim_id"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	claimID, err := id.ParseClaimID(req.ClaimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	cert, err := h.certs.Issue(ctx, claimID)
	if err != nil {
		h.logger.WarnContext(ctx, "certificate issuance rejected",
			"claim_id", req.ClaimID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{"certificate": cert})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	cert, err := h.certs.GetByClaim(r.Context(), claimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"certificate": cert})
}
