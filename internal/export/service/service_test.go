package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmodels "attribune/internal/catalog/models"
	catalogservice "attribune/internal/catalog/service"
	catalogstore "attribune/internal/catalog/store"
	certmodels "attribune/internal/certificate/models"
	"attribune/internal/certificate/signer"
	certstore "attribune/internal/certificate/store"
	claimmodels "attribune/internal/claims/models"
	fusionmodels "attribune/internal/fusion/models"
	royaltymodels "attribune/internal/royalty/models"
	royaltystore "attribune/internal/royalty/store"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

type fixture struct {
	claims  map[id.ClaimID]*claimmodels.Claim
	results map[id.ResultID]*fusionmodels.Result
}

func (f *fixture) Get(_ context.Context, claimID id.ClaimID) (*claimmodels.Claim, error) {
	if claim, ok := f.claims[claimID]; ok {
		return claim, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
}

func (f *fixture) GetResult(_ context.Context, resultID id.ResultID) (*fusionmodels.Result, error) {
	if result, ok := f.results[resultID]; ok {
		return result, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "result not found")
}

type builder struct {
	t         *testing.T
	fixture   *fixture
	royalties *royaltystore.InMemoryStore
	certs     *certstore.InMemoryStore
	catalog   *catalogservice.Service
}

func newBuilder(t *testing.T) *builder {
	t.Helper()
	return &builder{
		t:         t,
		fixture:   &fixture{claims: map[id.ClaimID]*claimmodels.Claim{}, results: map[id.ResultID]*fusionmodels.Result{}},
		royalties: royaltystore.NewInMemoryStore(),
		certs:     certstore.NewInMemoryStore(),
		catalog:   catalogservice.New(catalogstore.NewInMemoryStore(), time.Minute),
	}
}

func (b *builder) catalogWork(workID, title, artist, holder string) {
	work, err := catalogmodels.NewWork(id.WorkID(workID), title, artist, id.RightsHolderID(holder))
	require.NoError(b.t, err)
	require.NoError(b.t, b.catalog.Register(context.Background(), work))
}

// settled records a fully settled claim whose single work takes the whole
// payout.
func (b *builder) settled(workID string, totalCents int64) {
	decidedAt := time.Now()
	result := &fusionmodels.Result{
		ID:        id.NewResultID(),
		EventID:   id.NewEventID(),
		Version:   1,
		Matches:   []fusionmodels.WeightedMatch{{WorkID: id.WorkID(workID), InfluenceWeight: 0.5}},
		CreatedAt: decidedAt,
	}
	claim := &claimmodels.Claim{
		ID:        id.NewClaimID(),
		ResultID:  result.ID,
		Status:    claimmodels.StatusApproved,
		CreatedAt: decidedAt,
		DecidedAt: &decidedAt,
	}
	b.fixture.results[result.ID] = result
	b.fixture.claims[claim.ID] = claim
	require.NoError(b.t, b.royalties.Create(context.Background(), &royaltymodels.RoyaltyEvent{
		ID:               id.NewRoyaltyEventID(),
		ClaimID:          claim.ID,
		TotalAmountCents: totalCents,
		Splits:           []royaltymodels.Split{{RightsHolderID: "holder-a", AmountCents: totalCents}},
		SettledAt:        decidedAt,
	}))
}

func (b *builder) certificate(valid bool) {
	sgn, err := signer.New("")
	require.NoError(b.t, err)

	snapshot := certmodels.Snapshot{
		ClaimID:      id.NewClaimID(),
		EvidenceHash: certmodels.HashFingerprint("fp-abc"),
		ApprovedAt:   time.Now().UTC(),
	}
	payload, err := snapshot.CanonicalBytes()
	require.NoError(b.t, err)

	cert := &certmodels.Certificate{
		ID:        id.NewCertificateID(),
		ClaimID:   snapshot.ClaimID,
		Snapshot:  snapshot,
		Signature: sgn.Sign(payload),
		PublicKey: sgn.PublicKey(),
		IssuedAt:  time.Now(),
	}
	if !valid {
		cert.Snapshot.EvidenceHash = certmodels.HashFingerprint("fp-other")
	}
	require.NoError(b.t, b.certs.Create(context.Background(), cert))
}

func (b *builder) service() *Service {
	return New(b.royalties, b.certs, b.fixture, b.fixture, b.catalog)
}

func TestTopTracksAggregatesAndOrders(t *testing.T) {
	b := newBuilder(t)
	b.catalogWork("work-big", "Big Tune", "Artist One", "holder-a")
	b.catalogWork("work-small", "Small Tune", "Artist Two", "holder-b")
	b.settled("work-big", 1000)
	b.settled("work-big", 500)
	b.settled("work-small", 300)

	rows, err := b.service().TopTracks(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, id.WorkID("work-big"), rows[0].WorkID)
	assert.Equal(t, "Big Tune", rows[0].Title)
	assert.Equal(t, 2, rows[0].EventCount)
	assert.Equal(t, int64(1500), rows[0].TotalPayoutCents)

	assert.Equal(t, id.WorkID("work-small"), rows[1].WorkID)
	assert.Equal(t, 1, rows[1].EventCount)
	assert.Equal(t, int64(300), rows[1].TotalPayoutCents)
}

func TestWriteTopTracksCSV(t *testing.T) {
	b := newBuilder(t)
	b.catalogWork("work-1", "Neon Tide", "The Harbors", "holder-a")
	b.settled("work-1", 1234)

	var buf bytes.Buffer
	require.NoError(t, b.service().WriteTopTracksCSV(context.Background(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "track_id,title,artist,event_count,total_payout_dollars", lines[0])
	assert.Equal(t, "work-1,Neon Tide,The Harbors,1,12.34", lines[1])
}

func TestTopTracksUncataloguedWorkFallsBack(t *testing.T) {
	b := newBuilder(t)
	b.settled("work-ghost", 100)

	rows, err := b.service().TopTracks(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "work-ghost", rows[0].Title)
	assert.Equal(t, "unknown", rows[0].Artist)
}

func TestComplianceReport(t *testing.T) {
	b := newBuilder(t)
	b.settled("work-1", 1000)
	b.settled("work-2", 250)
	b.certificate(true)
	b.certificate(true)
	b.certificate(false)

	report, err := b.service().Compliance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.CertificatesIssued)
	assert.Equal(t, 2, report.CertificatesVerified)
	assert.Equal(t, 1, report.CertificatesInvalid)
	assert.Equal(t, 2, report.RoyaltyEventsSettled)
	assert.Equal(t, int64(1250), report.TotalPayoutCents)
}
