package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attribune/internal/certificate/signer"
	"attribune/internal/certificate/store"
	claimmodels "attribune/internal/claims/models"
	fusionmodels "attribune/internal/fusion/models"
	ingestmodels "attribune/internal/ingest/models"
	"attribune/internal/ledger"
	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

var testMetrics = metrics.New()

type fixture struct {
	claims  map[id.ClaimID]*claimmodels.Claim
	results map[id.ResultID]*fusionmodels.Result
	events  map[id.EventID]*ingestmodels.GenerationEvent
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

type eventFixture fixture

func (f *eventFixture) Get(_ context.Context, eventID id.EventID) (*ingestmodels.GenerationEvent, error) {
	if event, ok := f.events[eventID]; ok {
		return event, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "generation event not found")
}

func newFixture(status claimmodels.Status) (*fixture, *claimmodels.Claim) {
	event := &ingestmodels.GenerationEvent{
		ID:          id.NewEventID(),
		Seq:         1,
		ModelID:     "model-x",
		Fingerprint: "fp-abc",
		SubmittedAt: time.Now(),
	}
	result := &fusionmodels.Result{
		ID:      id.NewResultID(),
		EventID: event.ID,
		Version: 1,
		Matches: []fusionmodels.WeightedMatch{{WorkID: "work-1", InfluenceWeight: 0.31}},
		MatcherScores: []fusionmodels.MatcherScore{
			{AuditorID: "auditor-a", WorkID: "work-1", Similarity: 0.9},
		},
		BackendsResponded: 2,
		CreatedAt:         time.Now(),
	}
	decidedAt := time.Now().UTC().Truncate(time.Second)
	claim := &claimmodels.Claim{
		ID:        id.NewClaimID(),
		ResultID:  result.ID,
		Status:    status,
		CreatedAt: decidedAt.Add(-time.Minute),
	}
	if status != claimmodels.StatusPending {
		claim.DecidedAt = &decidedAt
	}
	return &fixture{
		claims:  map[id.ClaimID]*claimmodels.Claim{claim.ID: claim},
		results: map[id.ResultID]*fusionmodels.Result{result.ID: result},
		events:  map[id.EventID]*ingestmodels.GenerationEvent{event.ID: event},
	}, claim
}

func newService(t *testing.T, f *fixture) (*Service, *ledger.InMemoryStore) {
	t.Helper()
	sgn, err := signer.New("")
	require.NoError(t, err)
	sink := ledger.NewInMemoryStore()
	pub := ledger.NewPublisher(sink, nil, "", slog.Default(), nil)
	return New(f, f, (*eventFixture)(f), store.NewInMemoryStore(), sgn, pub, testMetrics, slog.Default()), sink
}

func TestIssueForApprovedClaim(t *testing.T) {
	f, claim := newFixture(claimmodels.StatusApproved)
	svc, sink := newService(t, f)

	cert, err := svc.Issue(context.Background(), claim.ID)
	require.NoError(t, err)

	assert.False(t, cert.ID.IsNil())
	assert.Equal(t, claim.ID, cert.ClaimID)
	assert.Equal(t, claim.DecidedAt.UTC(), cert.Snapshot.ApprovedAt.UTC())
	assert.Len(t, cert.Snapshot.FusionWeights, 1)
	assert.Len(t, cert.Snapshot.MatcherScores, 1)
	assert.NotContains(t, cert.Snapshot.EvidenceHash, "fp-abc", "raw fingerprint never appears in a certificate")

	ok, err := Verify(cert)
	require.NoError(t, err)
	assert.True(t, ok, "certificate verifies from its own contents alone")

	entries, err := sink.ListByKind(context.Background(), ledger.KindCertificateIssued)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIssueRejectsUndecidedAndRejectedClaims(t *testing.T) {
	for _, status := range []claimmodels.Status{claimmodels.StatusPending, claimmodels.StatusDisputed, claimmodels.StatusRejected} {
		t.Run(string(status), func(t *testing.T) {
			f, claim := newFixture(status)
			svc, _ := newService(t, f)

			_, err := svc.Issue(context.Background(), claim.ID)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		})
	}
}

func TestIssueIsOncePerClaim(t *testing.T) {
	f, claim := newFixture(claimmodels.StatusApproved)
	svc, _ := newService(t, f)

	_, err := svc.Issue(context.Background(), claim.ID)
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), claim.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyCertified))
}

func TestIssueUnknownClaim(t *testing.T) {
	f, _ := newFixture(claimmodels.StatusApproved)
	svc, _ := newService(t, f)

	_, err := svc.Issue(context.Background(), id.NewClaimID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestVerifyDetectsTampering(t *testing.T) {
	f, claim := newFixture(claimmodels.StatusApproved)
	svc, _ := newService(t, f)

	cert, err := svc.Issue(context.Background(), claim.ID)
	require.NoError(t, err)

	tampered := *cert
	tampered.Snapshot.FusionWeights = []fusionmodels.WeightedMatch{{WorkID: "work-1", InfluenceWeight: 0.99}}
	ok, err := Verify(&tampered)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetByClaim(t *testing.T) {
	f, claim := newFixture(claimmodels.StatusApproved)
	svc, _ := newService(t, f)

	_, err := svc.GetByClaim(context.Background(), claim.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	issued, err := svc.Issue(context.Background(), claim.ID)
	require.NoError(t, err)

	loaded, err := svc.GetByClaim(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, loaded.ID)
	assert.Equal(t, issued.Signature, loaded.Signature)
}
