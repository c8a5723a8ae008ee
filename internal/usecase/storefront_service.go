package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petitecurve/storefront/internal/domain"
)

// Gatherer collects the product list for one run
type Gatherer interface {
	Gather(ctx context.Context) GatherResult
}

// StorefrontServiceConfig holds configuration for the storefront service
type StorefrontServiceConfig struct {
	// APIAvailable is false when no PA-API credentials are configured; runs
	// still happen but publish an empty storefront
	APIAvailable bool
}

// StorefrontService builds and publishes the storefront artifacts
type StorefrontService struct {
	gatherer  Gatherer
	renderers []domain.Renderer
	writer    domain.ArtifactWriter
	config    StorefrontServiceConfig
	logger    *zap.Logger
	recorder  domain.MetricsRecorder
	now       func() time.Time
	newID     func() string

	running sync.Mutex
	mu      sync.RWMutex
	lastRun *domain.RunReport
}

// NewStorefrontService creates a storefront service
func NewStorefrontService(
	gatherer Gatherer,
	renderers []domain.Renderer,
	writer domain.ArtifactWriter,
	config StorefrontServiceConfig,
	logger *zap.Logger,
	recorder domain.MetricsRecorder,
) *StorefrontService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &StorefrontService{
		gatherer:  gatherer,
		renderers: renderers,
		writer:    writer,
		config:    config,
		logger:    logger,
		recorder:  recorder,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// APIAvailable reports whether runs can reach the PA-API
func (s *StorefrontService) APIAvailable() bool { return s.config.APIAvailable }

// Run gathers products, renders every artifact in memory and then writes
// them. A render failure aborts before anything is written. Only one run
// may be active at a time.
func (s *StorefrontService) Run(ctx context.Context) (*domain.RunReport, error) {
	if !s.running.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer s.running.Unlock()

	report := &domain.RunReport{
		RunID:     s.newID(),
		StartedAt: s.now(),
	}
	logger := s.logger.With(zap.String("run_id", report.RunID))
	logger.Info("storefront run started", zap.Bool("api_available", s.config.APIAvailable))

	err := s.run(ctx, logger, report)
	report.FinishedAt = s.now()
	duration := report.FinishedAt.Sub(report.StartedAt)
	s.recorder.RunCompleted(duration, len(report.Products), err)

	if err != nil {
		logger.Error("storefront run failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("storefront run finished",
		zap.Int("products", len(report.Products)),
		zap.Int("api_calls", report.APICalls),
		zap.Strings("tiers", report.TiersRun),
		zap.Duration("duration", duration))

	s.mu.Lock()
	s.lastRun = report
	s.mu.Unlock()

	return report, nil
}

func (s *StorefrontService) run(ctx context.Context, logger *zap.Logger, report *domain.RunReport) error {
	gathered := s.gatherer.Gather(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	report.Products = gathered.Products
	report.APICalls = gathered.APICalls
	report.TiersRun = gathered.TiersRun

	artifacts := make([]domain.Artifact, 0, len(s.renderers))
	for i, r := range s.renderers {
		artifact, err := r.Render(report.Products, report.StartedAt)
		if err != nil {
			return fmt.Errorf("failed to render artifact %d: %w", i, err)
		}
		artifacts = append(artifacts, artifact)
	}

	if err := s.writer.Write(ctx, artifacts); err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	report.Artifacts = make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		report.Artifacts = append(report.Artifacts, a.Name)
		logger.Info("wrote artifact", zap.String("name", a.Name), zap.Int("bytes", len(a.Body)))
	}
	return nil
}

// LastRun returns the report of the last successful run, if any
func (s *StorefrontService) LastRun() (*domain.RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil, false
	}
	report := *s.lastRun
	return &report, true
}
