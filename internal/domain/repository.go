package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ProductSearcher defines the interface for the PA-API search operation
type ProductSearcher interface {
	SearchItems(ctx context.Context, req SearchRequest) (*SearchResult, error)
}

// Renderer turns the final product list into one output artifact
type Renderer interface {
	Render(products []Product, now time.Time) (Artifact, error)
}

// ArtifactWriter persists rendered artifacts
type ArtifactWriter interface {
	Write(ctx context.Context, artifacts []Artifact) error
}

// MetricsRecorder receives pipeline measurements
type MetricsRecorder interface {
	APICall(outcome string)
	ThrottleRetry()
	BudgetExhausted()
	ItemsScanned(n int)
	ProductsAccepted(tier string, n int)
	RunCompleted(duration time.Duration, products int, err error)
}
