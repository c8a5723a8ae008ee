package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petitecurve/storefront/internal/domain"
)

// LocalWriter writes artifacts into a directory, replacing existing files
type LocalWriter struct {
	dir string
}

func NewLocalWriter(dir string) *LocalWriter {
	return &LocalWriter{dir: dir}
}

// Dir returns the output directory
func (w *LocalWriter) Dir() string { return w.dir }

// Write creates the directory if needed and writes every artifact in order.
// Files already written stay in place if a later one fails.
func (w *LocalWriter) Write(ctx context.Context, artifacts []domain.Artifact) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if a.Name == "" || strings.ContainsAny(a.Name, `/\`) || a.Name == "." || a.Name == ".." {
			return fmt.Errorf("invalid artifact name %q", a.Name)
		}
		path := filepath.Join(w.dir, a.Name)
		if err := os.WriteFile(path, a.Body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}
