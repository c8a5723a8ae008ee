package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/petitecurve/storefront/internal/domain"
)

// BatchSearcher runs one thresholded search pass
type BatchSearcher interface {
	SearchBatch(ctx context.Context, budget *Budget, keywords []string, tier domain.Tier) []domain.Product
}

// RelaxationServiceConfig holds configuration for the relaxation service
type RelaxationServiceConfig struct {
	Keywords    []string
	Tiers       []domain.Tier
	MaxAPICalls int
}

// GatherResult is the outcome of one relaxation run
type GatherResult struct {
	Products []domain.Product
	APICalls int
	TiersRun []string
}

// RelaxationService runs the tier table, loosening thresholds until enough
// products are collected
type RelaxationService struct {
	search   BatchSearcher
	config   RelaxationServiceConfig
	logger   *zap.Logger
	recorder domain.MetricsRecorder
}

// NewRelaxationService creates a relaxation service
func NewRelaxationService(search BatchSearcher, config RelaxationServiceConfig, logger *zap.Logger, recorder domain.MetricsRecorder) *RelaxationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &RelaxationService{
		search:   search,
		config:   config,
		logger:   logger,
		recorder: recorder,
	}
}

// GatherProducts returns the merged product list of one run
func (s *RelaxationService) GatherProducts(ctx context.Context) []domain.Product {
	return s.Gather(ctx).Products
}

// Gather runs the first tier unconditionally and each later tier only while
// the merged count is below that tier's threshold. Every call gets a fresh
// budget. It never fails for lack of inventory.
func (s *RelaxationService) Gather(ctx context.Context) GatherResult {
	budget := NewBudget(s.config.MaxAPICalls)
	result := GatherResult{Products: []domain.Product{}, TiersRun: []string{}}
	seen := make(map[string]struct{})

	for i, tier := range s.config.Tiers {
		if i > 0 && len(result.Products) >= tier.Threshold() {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		batch := s.search.SearchBatch(ctx, budget, s.config.Keywords, tier)
		result.TiersRun = append(result.TiersRun, tier.Name)

		added := 0
		for _, p := range batch {
			if _, dup := seen[p.URL]; dup {
				continue
			}
			seen[p.URL] = struct{}{}
			result.Products = append(result.Products, p)
			added++
		}
		s.recorder.ProductsAccepted(tier.Name, added)

		s.logger.Info("tier complete",
			zap.String("tier", tier.Name),
			zap.Int("found", len(batch)),
			zap.Int("added", added),
			zap.Int("total", len(result.Products)),
			zap.Int("api_calls", budget.Used()))
	}

	result.APICalls = budget.Used()
	return result
}
