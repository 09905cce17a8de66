package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/observability/metrics"
	"github.com/simple-clinic/clinic-sync/pkg/textnorm"
	"golang.org/x/sync/errgroup"
)

const (
	StrategyLegacy = "v1"
	StrategyFilter = "v2"
)

type SearchConfig struct {
	FuzzySearchV2Enabled bool
	Limit                int
}

// Searcher answers one-shot patient searches. Every call is read-only.
type Searcher struct {
	store   Store
	matcher NameMatcher
	config  SearchConfig
	metrics *metrics.Metrics
}

func NewSearcher(store Store, matcher NameMatcher, config SearchConfig, m *metrics.Metrics) *Searcher {
	return &Searcher{store: store, matcher: matcher, config: config, metrics: m}
}

func (s *Searcher) Strategy() string {
	if s.config.FuzzySearchV2Enabled {
		return StrategyFilter
	}
	return StrategyLegacy
}

func (s *Searcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	searchable := textnorm.Searchable(query)
	if searchable == "" {
		return []SearchResult{}, nil
	}

	start := time.Now()
	strategy := s.Strategy()

	var (
		results []SearchResult
		err     error
	)
	if strategy == StrategyFilter {
		results, err = s.searchFiltered(ctx, searchable)
	} else {
		results, err = s.searchLegacy(ctx, searchable)
	}
	s.metrics.ObserveSearch(strategy, time.Since(start), len(results), err)
	if err != nil {
		logger.Log.WithError(err).WithField("strategy", strategy).Warn("patient search failed")
		return nil, err
	}
	return results, nil
}

// searchLegacy runs the fuzzy and exact lookups side by side. Fuzzy hits
// lead; exact hits follow unless already present.
func (s *Searcher) searchLegacy(ctx context.Context, query string) ([]SearchResult, error) {
	var fuzzy, exact []SearchResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.store.FuzzySearch(gctx, query, s.config.Limit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return searchUnavailable("fuzzy search", err)
		}
		fuzzy = found
		return nil
	})
	g.Go(func() error {
		found, err := s.store.SearchByName(gctx, query, StatusActive, s.config.Limit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		exact = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return limitResults(MergeRanked(fuzzy, exact), s.config.Limit), nil
}

// searchFiltered narrows the name index in memory, then resolves the ids
// in the order the filter ranked them.
func (s *Searcher) searchFiltered(ctx context.Context, query string) ([]SearchResult, error) {
	index, err := s.store.NameAndIDs(ctx, StatusActive)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, err := s.matcher.Filter(ctx, query, index, s.config.Limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, searchUnavailable("name filter", err)
	}
	if len(ids) == 0 {
		return []SearchResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found, err := s.store.SearchByIDs(ctx, ids, StatusActive)
	if err != nil {
		return nil, err
	}
	return limitResults(OrderByIDs(ids, found), s.config.Limit), nil
}

// MergeRanked concatenates priority results with the remaining results,
// dropping any id already seen.
func MergeRanked(priority, rest []SearchResult) []SearchResult {
	seen := make(map[uuid.UUID]struct{}, len(priority)+len(rest))
	merged := make([]SearchResult, 0, len(priority)+len(rest))
	for _, group := range [][]SearchResult{priority, rest} {
		for _, r := range group {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

// OrderByIDs returns results in exactly the order of ids. Ids without a
// result are dropped.
func OrderByIDs(ids []uuid.UUID, results []SearchResult) []SearchResult {
	byID := make(map[uuid.UUID]SearchResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	ordered := make([]SearchResult, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
			delete(byID, id)
		}
	}
	return ordered
}

func limitResults(results []SearchResult, limit int) []SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
