package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attribune/internal/fusion/service"
	"attribune/internal/http/shared"
	"attribune/internal/matcher"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/requestcontext"
)

// Handler exposes the verification surface.
type Handler struct {
	fusion *service.Service
	logger *slog.Logger
}

// New creates a fusion Handler.
func New(fusion *service.Service, logger *slog.Logger) *Handler {
	return &Handler{fusion: fusion, logger: logger}
}

// Register mounts the fusion routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/fusion/verify", h.handleVerify)
	r.Post("/auditor/match", h.handleMatch)
}

type verifyRequest struct {
	EventID string `json:"event_id"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	eventID, err := id.ParseEventID(req.EventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.fusion.Verify(ctx, eventID)
	if err != nil {
		h.logger.WarnContext(ctx, "verification failed",
			"event_id", req.EventID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{"result": result})
}

type matchDirectRequest struct {
	AuditorID   string `json:"auditor_id"`
	Fingerprint string `json:"fingerprint"`
}

type matchDirectResponse struct {
	AuditorID string                   `json:"auditor_id"`
	Matches   []matcher.CandidateMatch `json:"matches"`
}

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req matchDirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	auditorID, err := id.ParseAuditorID(req.AuditorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	fingerprint, err := id.ParseFingerprint(req.Fingerprint)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	matches, err := h.fusion.MatchOne(ctx, auditorID, fingerprint)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if matches == nil {
		matches = []matcher.CandidateMatch{}
	}

	shared.WriteJSON(w, http.StatusOK, matchDirectResponse{
		AuditorID: auditorID.String(),
		Matches:   matches,
	})
}
