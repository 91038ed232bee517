package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"attribune/internal/jwtauth"
	"attribune/internal/partner/models"
	"attribune/internal/partner/secrets"
	"attribune/internal/partner/store"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/platform/sentinel"
	"attribune/pkg/requestcontext"
)

// Service manages the partner registry and the credential-for-token exchange.
type Service struct {
	partners store.PartnerStore
	tokens   *jwtauth.Service
	logger   *slog.Logger
}

// New constructs a partner service.
func New(partners store.PartnerStore, tokens *jwtauth.Service, logger *slog.Logger) *Service {
	return &Service{partners: partners, tokens: tokens, logger: logger}
}

// RegisterResult carries the one-time plaintext secret back to the operator.
type RegisterResult struct {
	Partner *models.Partner
	Secret  string
}

// Register creates a new partner with a generated secret. The plaintext
// secret is returned exactly once and only its hash is stored.
func (s *Service) Register(ctx context.Context, name string) (*RegisterResult, error) {
	secret, err := secrets.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate partner secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, err
	}

	partner, err := models.NewPartner(id.NewPartnerID(), name, hash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.partners.Create(ctx, partner); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "partner name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create partner")
	}

	s.logger.InfoContext(ctx, "partner registered", "partner_id", partner.ID.String(), "name", partner.Name)
	return &RegisterResult{Partner: partner, Secret: secret}, nil
}

// TokenResult is the response to a successful credential exchange.
type TokenResult struct {
	Token     string
	ExpiresAt time.Time
}

// ExchangeToken verifies partner credentials and issues a bearer token.
// Failures are deliberately uniform so callers cannot probe which partner
// ids exist.
func (s *Service) ExchangeToken(ctx context.Context, rawPartnerID, secret string) (*TokenResult, error) {
	partnerID, err := id.ParsePartnerID(strings.TrimSpace(rawPartnerID))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid partner credentials")
	}

	partner, err := s.partners.FindByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid partner credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load partner")
	}
	if !partner.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid partner credentials")
	}

	if err := secrets.Verify(secret, partner.SecretHash); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid partner credentials")
	}

	token, expiresAt, err := s.tokens.GeneratePartnerToken(partner.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign partner token")
	}
	return &TokenResult{Token: token, ExpiresAt: expiresAt}, nil
}

// Exists reports whether a partner id refers to an active partner. Ingest
// uses this to reject events from unrecognized source systems.
func (s *Service) Exists(ctx context.Context, partnerID id.PartnerID) (bool, error) {
	partner, err := s.partners.FindByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load partner")
	}
	return partner.IsActive(), nil
}
