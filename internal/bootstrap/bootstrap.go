// Package bootstrap wires configuration into the storefront object graph
// shared by the batch job and the preview server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/petitecurve/storefront/config"
	"github.com/petitecurve/storefront/internal/delivery/render"
	"github.com/petitecurve/storefront/internal/domain"
	"github.com/petitecurve/storefront/internal/infrastructure/cache"
	"github.com/petitecurve/storefront/internal/infrastructure/logger"
	"github.com/petitecurve/storefront/internal/infrastructure/metrics"
	"github.com/petitecurve/storefront/internal/infrastructure/paapi"
	"github.com/petitecurve/storefront/internal/infrastructure/storage"
	"github.com/petitecurve/storefront/internal/usecase"
)

const (
	cacheCleanupInterval = 10 * time.Minute
	redisKeyPrefix       = "storefront:"
)

// App is the assembled storefront
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Registry
	Storefront *usecase.StorefrontService
	OutputDir  string

	closers []func() error
}

// New builds every dependency from cfg. Missing PA-API credentials are not
// an error: the app runs and publishes an empty storefront.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    log,
		Metrics:   metrics.NewRegistry(),
		OutputDir: cfg.Output.Dir,
	}

	client := newSearcher(cfg.PAAPI, log)

	filter, err := usecase.NewFilter(cfg.Search.SizePattern)
	if err != nil {
		return nil, err
	}

	responseCache, err := app.newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	caller := usecase.NewCaller(usecase.RetryPolicy{
		BaseDelay:   cfg.Throttle.RequestDelay,
		Jitter:      cfg.Throttle.Jitter,
		MaxAttempts: cfg.Throttle.MaxRetries,
		Multiplier:  cfg.Throttle.BackoffMultiplier,
	}, log.Named("caller"), app.Metrics)

	search := usecase.NewSearchService(
		client,
		responseCache,
		caller,
		usecase.NewExtractor(cfg.PAAPI.PartnerTag, cfg.Search.ProductURLTemplate),
		filter,
		usecase.SearchServiceConfig{
			SearchIndex: cfg.Search.SearchIndex,
			ItemCount:   cfg.Search.ItemCount,
			Pages:       cfg.Search.Pages,
			Resources:   cfg.Search.Resources,
			CacheTTL:    cfg.Cache.TTL,
		},
		log.Named("search"),
		app.Metrics,
	)

	relaxation := usecase.NewRelaxationService(search, usecase.RelaxationServiceConfig{
		Keywords:    cfg.Search.Keywords,
		Tiers:       cfg.Tiers,
		MaxAPICalls: cfg.Throttle.MaxAPICalls,
	}, log.Named("relax"), app.Metrics)

	renderers, err := newRenderers(cfg)
	if err != nil {
		return nil, err
	}

	app.Storefront = usecase.NewStorefrontService(
		relaxation,
		renderers,
		storage.NewLocalWriter(cfg.Output.Dir),
		usecase.StorefrontServiceConfig{APIAvailable: search.Available()},
		log.Named("storefront"),
		app.Metrics,
	)

	return app, nil
}

// Close releases the cache connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// newSearcher returns the PA-API client, or nil when it cannot be built
func newSearcher(cfg config.PAAPIConfig, log *zap.Logger) domain.ProductSearcher {
	client, err := paapi.NewClient(paapi.Options{
		AccessKey:         cfg.AccessKey,
		SecretKey:         cfg.SecretKey,
		PartnerTag:        cfg.PartnerTag,
		Host:              cfg.Host,
		Region:            cfg.Region,
		Marketplace:       cfg.Marketplace,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.Timeout,
		Logger:            log,
	})
	if err != nil {
		log.Warn("PA-API disabled, storefront will be empty",
			zap.Bool("access_key", cfg.AccessKey != ""),
			zap.Bool("secret_key", cfg.SecretKey != ""),
			zap.String("partner_tag_suffix", logger.Suffix(cfg.PartnerTag, 4)),
			zap.Error(err))
		return nil
	}

	log.Info("PA-API configured",
		zap.String("host", cfg.Host),
		zap.String("region", cfg.Region),
		zap.String("partner_tag_suffix", logger.Suffix(cfg.PartnerTag, 4)))
	return client
}

func (a *App) newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, error) {
	switch cfg.Type {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL, redisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect response cache: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		a.Logger.Info("response cache", zap.String("type", "redis"), zap.Duration("ttl", cfg.TTL))
		return c, nil
	case "none":
		a.Logger.Info("response cache disabled")
		return nil, nil
	default:
		c := cache.NewMemoryCache(cacheCleanupInterval)
		a.closers = append(a.closers, c.Close)
		a.Logger.Info("response cache", zap.String("type", "memory"), zap.Duration("ttl", cfg.TTL))
		return c, nil
	}
}

func newRenderers(cfg *config.Config) ([]domain.Renderer, error) {
	site := render.Site{
		URL:             cfg.Site.URL,
		Title:           cfg.Site.Title,
		HeaderImage:     cfg.Site.HeaderImage,
		HeaderAlt:       cfg.Site.HeaderAlt,
		FeedTitle:       cfg.Site.FeedTitle,
		FeedDescription: cfg.Site.FeedDescription,
		Disclosure:      cfg.Site.Disclosure,
		Tagline:         cfg.Site.Tagline,
		Hashtags:        cfg.Site.Hashtags,
		CaptionStyle:    cfg.Site.CaptionStyle,
		FallbackOnEmpty: cfg.Site.FallbackOnEmpty,
		FallbackTitle:   cfg.Site.FallbackTitle,
		FallbackMessage: cfg.Site.FallbackMessage,
		FallbackImage:   cfg.Site.FallbackImage,
	}

	html, err := render.NewHTMLRenderer(filepath.Base(cfg.Output.HTMLFile), site)
	if err != nil {
		return nil, err
	}

	return []domain.Renderer{
		html,
		render.NewCSVRenderer(filepath.Base(cfg.Output.CSVFile)),
		render.NewRSSRenderer(filepath.Base(cfg.Output.RSSFile), site),
	}, nil
}
