package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/petitecurve/storefront/internal/domain"
)

// StorefrontRunner is the storefront usecase as seen by the handlers
type StorefrontRunner interface {
	Run(ctx context.Context) (*domain.RunReport, error)
	LastRun() (*domain.RunReport, bool)
	APIAvailable() bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	storefront StorefrontRunner
	metrics    http.Handler
	outputDir  string
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil metrics handler disables
// the /metrics endpoint.
func NewHandler(storefront StorefrontRunner, metrics http.Handler, outputDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		storefront: storefront,
		metrics:    metrics,
		outputDir:  outputDir,
		logger:     logger,
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "storefront",
		"version": "1.0.0",
	})
}

// Metrics serves the prometheus exposition
func (h *Handler) Metrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

// GetProducts returns the report of the last successful run
func (h *Handler) GetProducts(c *gin.Context) {
	if h.storefront == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storefront not configured"})
		return
	}

	report, ok := h.storefront.LastRun()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no storefront run yet"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Rebuild runs the pipeline and publishes fresh artifacts
func (h *Handler) Rebuild(c *gin.Context) {
	if h.storefront == nil || !h.storefront.APIAvailable() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "PA-API credentials not configured",
		})
		return
	}

	// The run outlives a disconnected client
	report, err := h.storefront.Run(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "a storefront run is already in progress"})
			return
		}
		h.logger.Error("rebuild failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storefront rebuild failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ServeOutput serves published artifacts from the output directory for any
// unmatched GET or HEAD path
func (h *Handler) ServeOutput(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	name := path.Clean("/" + c.Request.URL.Path)
	if name == "/" {
		name = "/index.html"
	}

	full := filepath.Join(h.outputDir, filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.File(full)
}
