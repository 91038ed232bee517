package store

import (
	"context"

	"attribune/internal/partner/models"
	id "attribune/pkg/domain"
)

// PartnerStore persists registered source systems. Implementations return
// sentinel errors; the service translates them into domain errors.
type PartnerStore interface {
	Create(ctx context.Context, partner *models.Partner) error
	FindByID(ctx context.Context, partnerID id.PartnerID) (*models.Partner, error)
	FindByName(ctx context.Context, name string) (*models.Partner, error)
}
