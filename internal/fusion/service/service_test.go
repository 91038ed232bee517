package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"attribune/internal/fusion/engine"
	"attribune/internal/fusion/store"
	ingestmodels "attribune/internal/ingest/models"
	"attribune/internal/ledger"
	"attribune/internal/matcher"
	"attribune/internal/mocks"
	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

var testMetrics = metrics.New()

type staticEvents struct {
	events map[id.EventID]*ingestmodels.GenerationEvent
}

func (s *staticEvents) Get(_ context.Context, eventID id.EventID) (*ingestmodels.GenerationEvent, error) {
	event, ok := s.events[eventID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "generation event not found")
	}
	return event, nil
}

func newEvent() *ingestmodels.GenerationEvent {
	return &ingestmodels.GenerationEvent{
		ID:             id.NewEventID(),
		Seq:            1,
		SourceSystemID: id.NewPartnerID(),
		ModelID:        "model-x",
		Fingerprint:    "fp-abc",
		SubmittedAt:    time.Now(),
	}
}

func newBackend(ctrl *gomock.Controller, auditorID string, reliability float64) *mocks.MockMatchBackend {
	backend := mocks.NewMockMatchBackend(ctrl)
	backend.EXPECT().ID().Return(id.AuditorID(auditorID)).AnyTimes()
	backend.EXPECT().Reliability().Return(reliability).AnyTimes()
	return backend
}

func newService(event *ingestmodels.GenerationEvent, backends ...matcher.MatchBackend) (*Service, *ledger.InMemoryStore) {
	events := &staticEvents{events: map[id.EventID]*ingestmodels.GenerationEvent{event.ID: event}}
	requester := matcher.NewRequester(backends, time.Second, testMetrics, slog.Default())
	eng := engine.New(engine.Config{MinBackends: 2, ConfidenceDiscount: 0.5, NoiseFloor: 0.01})
	sink := ledger.NewInMemoryStore()
	pub := ledger.NewPublisher(sink, nil, "", slog.Default(), nil)
	return New(events, requester, eng, store.NewInMemoryStore(), pub, testMetrics, slog.Default()), sink
}

func TestVerifyPersistsResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	event := newEvent()

	first := newBackend(ctrl, "auditor-a", 1.0)
	first.EXPECT().Match(gomock.Any(), event.Fingerprint).Return([]matcher.CandidateMatch{
		{WorkID: "work-1", Similarity: 0.9},
	}, nil)
	second := newBackend(ctrl, "auditor-b", 1.0)
	second.EXPECT().Match(gomock.Any(), event.Fingerprint).Return([]matcher.CandidateMatch{
		{WorkID: "work-1", Similarity: 0.7},
	}, nil)

	svc, sink := newService(event, first, second)
	result, err := svc.Verify(context.Background(), event.ID)
	require.NoError(t, err)

	assert.False(t, result.ID.IsNil())
	assert.Equal(t, event.ID, result.EventID)
	assert.Equal(t, 1, result.Version)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, 2, result.BackendsResponded)
	assert.Len(t, result.MatcherScores, 2)

	loaded, err := svc.GetResult(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Matches, loaded.Matches)

	entries, err := sink.ListByKind(context.Background(), ledger.KindResultFused)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVerifyAppendsNewVersionPerRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	event := newEvent()

	backend := newBackend(ctrl, "auditor-a", 1.0)
	backend.EXPECT().Match(gomock.Any(), gomock.Any()).Return([]matcher.CandidateMatch{
		{WorkID: "work-1", Similarity: 0.5},
	}, nil).Times(2)
	other := newBackend(ctrl, "auditor-b", 1.0)
	other.EXPECT().Match(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	svc, _ := newService(event, backend, other)

	first, err := svc.Verify(context.Background(), event.ID)
	require.NoError(t, err)
	second, err := svc.Verify(context.Background(), event.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Matches, second.Matches, "identical evidence fuses identically across versions")
}

func TestVerifyFailsWhenNoBackendResponds(t *testing.T) {
	ctrl := gomock.NewController(t)
	event := newEvent()

	backend := newBackend(ctrl, "auditor-a", 1.0)
	backend.EXPECT().Match(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	svc, sink := newService(event, backend)
	_, err := svc.Verify(context.Background(), event.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientEvidence))

	entries, err := sink.ListByKind(context.Background(), ledger.KindResultFused)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed fusion must not reach the ledger")
}

func TestVerifyUnknownEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newService(newEvent(), newBackend(ctrl, "auditor-a", 1.0))

	_, err := svc.Verify(context.Background(), id.NewEventID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMatchOneQueriesNamedBackend(t *testing.T) {
	ctrl := gomock.NewController(t)
	event := newEvent()

	target := newBackend(ctrl, "auditor-a", 1.0)
	target.EXPECT().Match(gomock.Any(), id.Fingerprint("fp-abc")).Return([]matcher.CandidateMatch{
		{WorkID: "work-1", Similarity: 0.6},
	}, nil)
	bystander := newBackend(ctrl, "auditor-b", 1.0)

	svc, _ := newService(event, target, bystander)
	matches, err := svc.MatchOne(context.Background(), "auditor-a", "fp-abc")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, id.WorkID("work-1"), matches[0].WorkID)
}

func TestMatchOneUnknownAuditor(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newService(newEvent(), newBackend(ctrl, "auditor-a", 1.0))

	_, err := svc.MatchOne(context.Background(), "auditor-zz", "fp-abc")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
