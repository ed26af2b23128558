package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"trip-planner/internal/models"
	"trip-planner/internal/store"

	"github.com/labstack/gommon/log"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// ServiceInterface resolves destination ids for the itinerary core.
type ServiceInterface interface {
	// Resolve returns the known destinations among ids. Unknown ids are absent.
	Resolve(ctx context.Context, ids []int64) (map[int64]*models.Destination, error)
}

// Service is a read-through cache in front of a DestinationReader.
type Service struct {
	repo   store.DestinationReader
	cache  *cache.Cache
	group  singleflight.Group
	logger *log.Logger
}

// NewService creates a catalog service caching entries for ttl.
// A nil logger falls back to one prefixed "catalog".
func NewService(repo store.DestinationReader, ttl time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New("catalog")
	}
	return &Service{
		repo:   repo,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func cacheKey(id int64) string {
	return "destination:" + strconv.FormatInt(id, 10)
}

func (s *Service) Resolve(ctx context.Context, ids []int64) (map[int64]*models.Destination, error) {
	result := make(map[int64]*models.Destination, len(ids))
	var misses []int64
	for _, id := range ids {
		if _, done := result[id]; done {
			continue
		}
		if cached, ok := s.cache.Get(cacheKey(id)); ok {
			result[id] = cached.(*models.Destination)
			continue
		}
		if !slices.Contains(misses, id) {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return result, nil
	}

	slices.Sort(misses)
	found, err := s.load(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, d := range found {
		result[id] = d
	}
	return result, nil
}

// lookupTimeout bounds a shared repository lookup. The lookup is detached from the
// callers' contexts, so one caller giving up does not fail the others.
const lookupTimeout = 5 * time.Second

// load fetches ids from the repository. Concurrent loads of the same id set share
// one query; each caller stops waiting when its own ctx is done.
func (s *Service) load(ctx context.Context, ids []int64) (map[int64]*models.Destination, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	ch := s.group.DoChan(strings.Join(parts, ","), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		found, err := s.repo.FindByIDs(lookupCtx, ids)
		if err != nil {
			return nil, err
		}
		for id, d := range found {
			s.cache.SetDefault(cacheKey(id), d)
		}
		return found, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			s.logger.Errorf("catalog lookup of %d destinations failed: %v", len(ids), res.Err)
			return nil, fmt.Errorf("catalog.Resolve: %w", res.Err)
		}
		if res.Shared {
			s.logger.Debugf("catalog lookup of %v shared with a concurrent caller", ids)
		}
		return res.Val.(map[int64]*models.Destination), nil
	}
}
