//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attribune/internal/fusion/models"
	"attribune/internal/fusion/store"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
	"attribune/pkg/testutil/containers"
)

type PostgresResultSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	results  *store.PostgresStore
}

func TestPostgresResultSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresResultSuite))
}

func (s *PostgresResultSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.results = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresResultSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "fusion_results")
	s.Require().NoError(err)
}

func newResult(eventID id.EventID) *models.Result {
	return &models.Result{
		ID:      id.NewResultID(),
		EventID: eventID,
		Matches: []models.WeightedMatch{
			{WorkID: "work-a", InfluenceWeight: 0.4},
			{WorkID: "work-b", InfluenceWeight: 0.2},
		},
		MatcherScores: []models.MatcherScore{
			{AuditorID: "auditor-1", WorkID: "work-a", Similarity: 0.9},
		},
		BackendsResponded: 2,
		CreatedAt:         time.Now().UTC(),
	}
}

func (s *PostgresResultSuite) TestCreateAssignsFirstVersion() {
	ctx := context.Background()
	result := newResult(id.NewEventID())

	err := s.results.Create(ctx, result)
	s.Require().NoError(err)
	s.Equal(1, result.Version)

	found, err := s.results.FindByID(ctx, result.ID)
	s.Require().NoError(err)
	s.Equal(result.EventID, found.EventID)
	s.Equal(result.Matches, found.Matches)
	s.Equal(result.MatcherScores, found.MatcherScores)
	s.Equal(2, found.BackendsResponded)
}

func (s *PostgresResultSuite) TestVersionsAppendPerEvent() {
	ctx := context.Background()
	eventID := id.NewEventID()

	for want := 1; want <= 3; want++ {
		result := newResult(eventID)
		s.Require().NoError(s.results.Create(ctx, result))
		s.Equal(want, result.Version)
	}

	// A different event starts its own chain.
	other := newResult(id.NewEventID())
	s.Require().NoError(s.results.Create(ctx, other))
	s.Equal(1, other.Version)

	versions, err := s.results.ListVersionsByEvent(ctx, eventID)
	s.Require().NoError(err)
	s.Require().Len(versions, 3)
	for i, result := range versions {
		s.Equal(i+1, result.Version)
	}

	current, err := s.results.FindCurrentByEvent(ctx, eventID)
	s.Require().NoError(err)
	s.Equal(3, current.Version)
}

func (s *PostgresResultSuite) TestAllResidualRoundTrips() {
	ctx := context.Background()
	result := newResult(id.NewEventID())
	result.Matches = nil
	result.MatcherScores = nil

	s.Require().NoError(s.results.Create(ctx, result))

	found, err := s.results.FindByID(ctx, result.ID)
	s.Require().NoError(err)
	s.Empty(found.Matches)
	s.True(found.AllResidual())
}

func (s *PostgresResultSuite) TestFindUnknown() {
	ctx := context.Background()

	_, err := s.results.FindByID(ctx, id.NewResultID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.results.FindCurrentByEvent(ctx, id.NewEventID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
