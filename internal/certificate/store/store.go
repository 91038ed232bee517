// Package store persists certificates.
package store

import (
	"context"

	"attribune/internal/certificate/models"
	id "attribune/pkg/domain"
)

// CertificateStore persists certificates. The unique claim index is the
// one-certificate-per-claim guard: a second insert for the same claim fails
// with sentinel.ErrDuplicate regardless of which replica raced it there.
type CertificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
	FindByClaim(ctx context.Context, claimID id.ClaimID) (*models.Certificate, error)
	List(ctx context.Context) ([]*models.Certificate, error)
}
