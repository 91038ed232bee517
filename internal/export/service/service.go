// Package service renders read-only exports over settled data.
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	catalogmodels "attribune/internal/catalog/models"
	certmodels "attribune/internal/certificate/models"
	certservice "attribune/internal/certificate/service"
	claimmodels "attribune/internal/claims/models"
	fusionmodels "attribune/internal/fusion/models"
	royaltymodels "attribune/internal/royalty/models"
	royaltyservice "attribune/internal/royalty/service"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/requestcontext"
)

// RoyaltyLister loads settled royalty events.
type RoyaltyLister interface {
	List(ctx context.Context) ([]*royaltymodels.RoyaltyEvent, error)
}

// CertificateLister loads issued certificates.
type CertificateLister interface {
	List(ctx context.Context) ([]*certmodels.Certificate, error)
}

// ClaimSource loads claims behind settlements.
type ClaimSource interface {
	Get(ctx context.Context, claimID id.ClaimID) (*claimmodels.Claim, error)
}

// ResultSource loads decompositions behind claims.
type ResultSource interface {
	GetResult(ctx context.Context, resultID id.ResultID) (*fusionmodels.Result, error)
}

// CatalogLookup resolves work metadata for track rows.
type CatalogLookup interface {
	Lookup(ctx context.Context, workID id.WorkID) (*catalogmodels.Work, error)
}

// Service derives exports from already-settled data. It is purely
// read/format; nothing here writes pipeline state.
type Service struct {
	royalties RoyaltyLister
	certs     CertificateLister
	claims    ClaimSource
	results   ResultSource
	catalog   CatalogLookup
}

// New constructs an export service.
func New(royalties RoyaltyLister, certs CertificateLister, claims ClaimSource, results ResultSource, catalog CatalogLookup) *Service {
	return &Service{
		royalties: royalties,
		certs:     certs,
		claims:    claims,
		results:   results,
		catalog:   catalog,
	}
}

// TrackRow is one line of the top-tracks export.
type TrackRow struct {
	WorkID           id.WorkID
	Title            string
	Artist           string
	EventCount       int
	TotalPayoutCents int64
}

// TopTracks aggregates settled payouts per work, ordered by descending
// payout with work id as the tie-breaker. Per-work amounts re-run the same
// apportionment that produced the stored splits, so the columns reconcile
// with the settlement records exactly.
func (s *Service) TopTracks(ctx context.Context) ([]TrackRow, error) {
	events, err := s.royalties.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list royalty events")
	}

	type accum struct {
		count int
		cents int64
	}
	perWork := make(map[id.WorkID]*accum)
	for _, event := range events {
		claim, err := s.claims.Get(ctx, event.ClaimID)
		if err != nil {
			return nil, err
		}
		result, err := s.results.GetResult(ctx, claim.ResultID)
		if err != nil {
			return nil, err
		}

		stakes := make([]royaltyservice.Stake, 0, len(result.Matches))
		for _, m := range result.Matches {
			stakes = append(stakes, royaltyservice.Stake{
				WorkID: m.WorkID,
				Weight: m.InfluenceWeight,
			})
		}
		for _, share := range royaltyservice.ApportionByWork(event.TotalAmountCents, stakes) {
			a, ok := perWork[share.WorkID]
			if !ok {
				a = &accum{}
				perWork[share.WorkID] = a
			}
			a.count++
			a.cents += share.AmountCents
		}
	}

	rows := make([]TrackRow, 0, len(perWork))
	for workID, a := range perWork {
		row := TrackRow{
			WorkID:           workID,
			Title:            workID.String(),
			Artist:           "unknown",
			EventCount:       a.count,
			TotalPayoutCents: a.cents,
		}
		if work, err := s.catalog.Lookup(ctx, workID); err == nil {
			row.Title = work.Title
			row.Artist = work.Artist
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPayoutCents != rows[j].TotalPayoutCents {
			return rows[i].TotalPayoutCents > rows[j].TotalPayoutCents
		}
		return rows[i].WorkID < rows[j].WorkID
	})
	return rows, nil
}

// WriteTopTracksCSV streams the top-tracks export. Payouts are rendered in
// dollars derived from the stored cents, never recomputed from floats.
func (s *Service) WriteTopTracksCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.TopTracks(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"track_id", "title", "artist", "event_count", "total_payout_dollars"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.WorkID.String(),
			row.Title,
			row.Artist,
			fmt.Sprintf("%d", row.EventCount),
			formatDollars(row.TotalPayoutCents),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDollars(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ComplianceReport summarizes the audit posture of the settled corpus.
type ComplianceReport struct {
	GeneratedAt          time.Time `json:"generated_at"`
	CertificatesIssued   int       `json:"certificates_issued"`
	CertificatesVerified int       `json:"certificates_verified"`
	CertificatesInvalid  int       `json:"certificates_invalid"`
	RoyaltyEventsSettled int       `json:"royalty_events_settled"`
	TotalPayoutCents     int64     `json:"total_payout_cents"`
}

// Compliance re-verifies every stored certificate signature and totals the
// settled payouts.
func (s *Service) Compliance(ctx context.Context) (*ComplianceReport, error) {
	certs, err := s.certs.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certificates")
	}
	events, err := s.royalties.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list royalty events")
	}

	report := &ComplianceReport{
		GeneratedAt:        requestcontext.Now(ctx),
		CertificatesIssued: len(certs),
	}
	for _, cert := range certs {
		ok, err := certservice.Verify(cert)
		if err != nil || !ok {
			report.CertificatesInvalid++
			continue
		}
		report.CertificatesVerified++
	}
	report.RoyaltyEventsSettled = len(events)
	for _, event := range events {
		report.TotalPayoutCents += event.TotalAmountCents
	}
	return report, nil
}
