package service

import (
	"context"
	"errors"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"attribune/internal/catalog/models"
	"attribune/internal/catalog/store"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/platform/sentinel"
)

// Service resolves work ids to catalog entries through a TTL cache. Catalog
// rows change rarely relative to settlement volume, so a short positive cache
// keeps the hot path off the database.
type Service struct {
	works store.WorkStore
	cache *gocache.Cache
}

// New constructs a catalog service. ttl bounds cache staleness.
func New(works store.WorkStore, ttl time.Duration) *Service {
	return &Service{
		works: works,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Register adds or replaces a catalog entry and invalidates its cache slot.
func (s *Service) Register(ctx context.Context, work *models.Work) error {
	if err := s.works.Upsert(ctx, work); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store catalog work")
	}
	s.cache.Delete(work.ID.String())
	return nil
}

// Lookup returns one catalog entry.
func (s *Service) Lookup(ctx context.Context, workID id.WorkID) (*models.Work, error) {
	if cached, ok := s.cache.Get(workID.String()); ok {
		work := cached.(models.Work)
		return &work, nil
	}

	work, err := s.works.FindByID(ctx, workID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "work %s is not catalogued", workID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog work")
	}
	s.cache.SetDefault(workID.String(), *work)
	return work, nil
}

// Resolve maps every work id to its catalog entry. Missing works are returned
// separately, sorted ascending, so settlement can name all of them at once.
func (s *Service) Resolve(ctx context.Context, workIDs []id.WorkID) (map[id.WorkID]*models.Work, []id.WorkID, error) {
	resolved := make(map[id.WorkID]*models.Work, len(workIDs))
	var missing []id.WorkID
	for _, workID := range workIDs {
		work, err := s.Lookup(ctx, workID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				missing = append(missing, workID)
				continue
			}
			return nil, nil, err
		}
		resolved[workID] = work
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return resolved, missing, nil
}
