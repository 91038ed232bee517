package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attribune/internal/http/shared"
	"attribune/internal/partner/service"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/requestcontext"
)

// Handler exposes the partner token exchange and the admin registration
// endpoint.
type Handler struct {
	partners   *service.Service
	logger     *slog.Logger
	adminToken string
}

// New creates a partner Handler. adminToken guards registration; when empty
// the endpoint is disabled.
func New(partners *service.Service, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{partners: partners, logger: logger, adminToken: adminToken}
}

// Register registers the partner routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/partner/token", h.handleToken)
	r.Post("/partner/register", h.handleRegister)
}

type tokenRequest struct {
	PartnerID string `json:"partner_id"`
	Secret    string `json:"secret"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	result, err := h.partners.ExchangeToken(ctx, req.PartnerID, req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "partner token exchange failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.Token,
		"token_type":   "Bearer",
		"expires_at":   result.ExpiresAt,
	})
}

type registerRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.adminToken == "" || r.Header.Get("X-Admin-Token") != h.adminToken {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	result, err := h.partners.Register(ctx, req.Name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"partner_id": result.Partner.ID.String(),
		"name":       result.Partner.Name,
		"secret":     result.Secret,
	})
}
