package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attribune/internal/claims/models"
	"attribune/internal/claims/store"
	fusionmodels "attribune/internal/fusion/models"
	"attribune/internal/ledger"
	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

var testMetrics = metrics.New()

type staticResults struct {
	results map[id.ResultID]*fusionmodels.Result
}

func (s *staticResults) GetResult(_ context.Context, resultID id.ResultID) (*fusionmodels.Result, error) {
	result, ok := s.results[resultID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "result not found")
	}
	return result, nil
}

func newResult(matches ...fusionmodels.WeightedMatch) *fusionmodels.Result {
	return &fusionmodels.Result{
		ID:                id.NewResultID(),
		EventID:           id.NewEventID(),
		Version:           1,
		Matches:           matches,
		BackendsResponded: 2,
		CreatedAt:         time.Now(),
	}
}

func newService(results ...*fusionmodels.Result) (*Service, *ledger.InMemoryStore) {
	src := &staticResults{results: make(map[id.ResultID]*fusionmodels.Result)}
	for _, r := range results {
		src.results[r.ID] = r
	}
	sink := ledger.NewInMemoryStore()
	pub := ledger.NewPublisher(sink, nil, "", slog.Default(), nil)
	return New(src, store.NewInMemoryStore(), pub, testMetrics, slog.Default()), sink
}

func TestBuildCreatesPendingClaim(t *testing.T) {
	result := newResult(fusionmodels.WeightedMatch{WorkID: "work-1", InfluenceWeight: 0.4})
	svc, sink := newService(result)

	claim, err := svc.Build(context.Background(), result.ID)
	require.NoError(t, err)
	assert.False(t, claim.ID.IsNil())
	assert.Equal(t, result.ID, claim.ResultID)
	assert.Equal(t, models.StatusPending, claim.Status)
	assert.Nil(t, claim.DecidedAt)

	entries, err := sink.ListByKind(context.Background(), ledger.KindClaimCreated)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBuildAutoRejectsAllResidualResult(t *testing.T) {
	result := newResult()
	svc, _ := newService(result)

	claim, err := svc.Build(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, claim.Status)
	require.NotNil(t, claim.DecidedAt)

	// Auto-rejection is terminal; the claim can never reach approved.
	_, err = svc.Decide(context.Background(), claim.ID, models.StatusApproved)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestBuildRejectsSecondClaimForResult(t *testing.T) {
	result := newResult(fusionmodels.WeightedMatch{WorkID: "work-1", InfluenceWeight: 0.4})
	svc, _ := newService(result)

	_, err := svc.Build(context.Background(), result.ID)
	require.NoError(t, err)

	_, err = svc.Build(context.Background(), result.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestBuildUnknownResult(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Build(context.Background(), id.NewResultID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDecideTransitionsPendingOnce(t *testing.T) {
	result := newResult(fusionmodels.WeightedMatch{WorkID: "work-1", InfluenceWeight: 0.4})
	svc, sink := newService(result)

	claim, err := svc.Build(context.Background(), result.ID)
	require.NoError(t, err)

	decided, err := svc.Decide(context.Background(), claim.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedAt)

	for _, next := range []models.Status{models.StatusApproved, models.StatusRejected, models.StatusDisputed} {
		_, err := svc.Decide(context.Background(), claim.ID, next)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	}

	entries, err := sink.ListByKind(context.Background(), ledger.KindClaimDecided)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed transitions must not reach the ledger")
}

func TestDecideUnknownClaim(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Decide(context.Background(), id.NewClaimID(), models.StatusApproved)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDecideConcurrentRacesProduceOneWinner(t *testing.T) {
	result := newResult(fusionmodels.WeightedMatch{WorkID: "work-1", InfluenceWeight: 0.4})
	svc, _ := newService(result)

	claim, err := svc.Build(context.Background(), result.ID)
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Decide(context.Background(), claim.ID, models.StatusApproved)
		}()
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent decision may land")
}

func TestParseStatusRejectsPending(t *testing.T) {
	_, err := models.ParseStatus("pending")
	require.Error(t, err)
	_, err = models.ParseStatus("nonsense")
	require.Error(t, err)

	status, err := models.ParseStatus("disputed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisputed, status)
}
