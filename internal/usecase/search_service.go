package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petitecurve/storefront/internal/domain"
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	SearchIndex string
	ItemCount   int
	Pages       int
	Resources   []string
	CacheTTL    time.Duration
}

// SearchService runs one thresholded pass over the keyword list
type SearchService struct {
	client    domain.ProductSearcher
	cache     domain.CacheRepository
	caller    *Caller
	extractor *Extractor
	filter    *Filter
	config    SearchServiceConfig
	logger    *zap.Logger
	recorder  domain.MetricsRecorder
}

// NewSearchService creates a search service. A nil client means the API is
// not configured and every batch comes back empty; a nil cache disables
// response caching.
func NewSearchService(
	client domain.ProductSearcher,
	cache domain.CacheRepository,
	caller *Caller,
	extractor *Extractor,
	filter *Filter,
	config SearchServiceConfig,
	logger *zap.Logger,
	recorder domain.MetricsRecorder,
) *SearchService {
	if config.Pages < 1 {
		config.Pages = 1
	}
	if config.ItemCount == 0 {
		config.ItemCount = 10
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &SearchService{
		client:    client,
		cache:     cache,
		caller:    caller,
		extractor: extractor,
		filter:    filter,
		config:    config,
		logger:    logger,
		recorder:  recorder,
	}
}

// Available reports whether a PA-API client is configured
func (s *SearchService) Available() bool { return s.client != nil }

// SearchBatch walks keywords × pages and returns up to tier.Target unique
// products passing the tier thresholds. It stops early on target, budget
// exhaustion or context cancellation and returns what it has.
func (s *SearchService) SearchBatch(ctx context.Context, budget *Budget, keywords []string, tier domain.Tier) []domain.Product {
	products := []domain.Product{}
	if s.client == nil {
		s.logger.Info("API unavailable, skipping search", zap.String("tier", tier.Name))
		return products
	}

	seen := make(map[string]struct{})

	for _, kw := range keywords {
		if budget.Exhausted() {
			s.budgetReached(tier, len(products))
			return products
		}
		s.logger.Info("search",
			zap.String("keyword", kw),
			zap.String("tier", tier.Name),
			zap.Float64("min_stars", tier.MinStars),
			zap.Int("min_reviews", tier.MinReviews))

		if err := s.caller.Pause(ctx); err != nil {
			return products
		}

		for page := 1; page <= s.config.Pages; page++ {
			if budget.Exhausted() {
				s.budgetReached(tier, len(products))
				return products
			}

			result, err := s.fetchPage(ctx, budget, kw, page)
			if err != nil {
				if errors.Is(err, domain.ErrBudgetExhausted) {
					// Caller.Call has already counted it
					s.logger.Warn("API call budget reached, stopping batch",
						zap.String("tier", tier.Name),
						zap.Int("collected", len(products)))
					return products
				}
				if ctx.Err() != nil {
					return products
				}
				s.logger.Warn("search failed",
					zap.String("keyword", kw),
					zap.Int("page", page),
					zap.Error(err))
				continue
			}

			s.recorder.ItemsScanned(len(result.Items))
			for _, item := range result.Items {
				p := s.extractor.Extract(item)
				if p.URL == "" {
					continue
				}
				if _, dup := seen[p.URL]; dup {
					continue
				}
				if !s.filter.Passes(p, tier.MinStars, tier.MinReviews) {
					continue
				}

				seen[p.URL] = struct{}{}
				products = append(products, p)
				if len(products) >= tier.Target {
					s.logger.Info("reached target",
						zap.String("tier", tier.Name),
						zap.Int("target", tier.Target))
					return products
				}
			}
		}
	}

	return products
}

func (s *SearchService) budgetReached(tier domain.Tier, collected int) {
	s.recorder.BudgetExhausted()
	s.logger.Warn("API call budget reached, stopping batch",
		zap.String("tier", tier.Name),
		zap.Int("collected", collected))
}

// fetchPage returns one search page, from cache when possible. Cache hits
// do not touch the call budget.
func (s *SearchService) fetchPage(ctx context.Context, budget *Budget, keyword string, page int) (*domain.SearchResult, error) {
	key := s.cacheKey(keyword, page)

	if cached, ok := s.getFromCache(ctx, key); ok {
		return cached, nil
	}

	var result *domain.SearchResult
	err := s.caller.Call(ctx, budget, func(ctx context.Context) error {
		res, err := s.client.SearchItems(ctx, domain.SearchRequest{
			Keywords:    keyword,
			SearchIndex: s.config.SearchIndex,
			ItemCount:   s.config.ItemCount,
			ItemPage:    page,
			Resources:   s.config.Resources,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &domain.SearchResult{}
	}

	s.setInCache(ctx, key, result)
	return result, nil
}

// cacheKey builds "paapi:search:{index}:{keyword}:{page}" with the keyword
// lowercased and whitespace collapsed
func (s *SearchService) cacheKey(keyword string, page int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
	return fmt.Sprintf("paapi:search:%s:%s:%d", s.config.SearchIndex, normalized, page)
}

func (s *SearchService) getFromCache(ctx context.Context, key string) (*domain.SearchResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}

	return &result, true
}

func (s *SearchService) setInCache(ctx context.Context, key string, result *domain.SearchResult) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.config.CacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
