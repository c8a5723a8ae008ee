package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/petitecurve/storefront/internal/domain"
)

// MockGatherer returns a fixed result, optionally blocking until released
type MockGatherer struct {
	result  GatherResult
	started chan struct{}
	release chan struct{}
	calls   int
}

func (m *MockGatherer) Gather(ctx context.Context) GatherResult {
	m.calls++
	if m.started != nil {
		close(m.started)
		<-m.release
	}
	return m.result
}

// MockRenderer renders a fixed artifact and remembers its input
type MockRenderer struct {
	name     string
	err      error
	products []domain.Product
	now      time.Time
}

func (m *MockRenderer) Render(products []domain.Product, now time.Time) (domain.Artifact, error) {
	m.products = products
	m.now = now
	if m.err != nil {
		return domain.Artifact{}, m.err
	}
	return domain.Artifact{Name: m.name, ContentType: "text/plain", Body: []byte(m.name)}, nil
}

// MockWriter records written artifacts
type MockWriter struct {
	written []domain.Artifact
	err     error
}

func (m *MockWriter) Write(ctx context.Context, artifacts []domain.Artifact) error {
	if m.err != nil {
		return m.err
	}
	m.written = append(m.written, artifacts...)
	return nil
}

func newTestStorefront(g Gatherer, w domain.ArtifactWriter, rec domain.MetricsRecorder, renderers ...domain.Renderer) *StorefrontService {
	svc := NewStorefrontService(g, renderers, w, StorefrontServiceConfig{APIAvailable: true}, nil, rec)
	clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	svc.newID = func() string { return "run-1" }
	return svc
}

func TestStorefrontRun(t *testing.T) {
	ctx := context.Background()
	found := GatherResult{
		Products: products("p", 2),
		APICalls: 4,
		TiersRun: []string{"strict"},
	}

	t.Run("renders and writes every artifact", func(t *testing.T) {
		html := &MockRenderer{name: "index.html"}
		csv := &MockRenderer{name: "daily_curated.csv"}
		writer := &MockWriter{}
		rec := newFakeRecorder()
		svc := newTestStorefront(&MockGatherer{result: found}, writer, rec, html, csv)

		report, err := svc.Run(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.RunID != "run-1" {
			t.Errorf("RunID = %v, want run-1", report.RunID)
		}
		if len(report.Products) != 2 || report.APICalls != 4 {
			t.Errorf("report = %+v", report)
		}
		if len(writer.written) != 2 || writer.written[0].Name != "index.html" {
			t.Errorf("written = %v", writer.written)
		}
		if len(report.Artifacts) != 2 || report.Artifacts[1] != "daily_curated.csv" {
			t.Errorf("Artifacts = %v", report.Artifacts)
		}
		if !html.now.Equal(report.StartedAt) {
			t.Errorf("render clock = %v, want %v", html.now, report.StartedAt)
		}
		if !report.FinishedAt.After(report.StartedAt) {
			t.Error("FinishedAt should follow StartedAt")
		}
		if rec.runs != 1 || rec.lastErr != nil {
			t.Errorf("runs = %d lastErr = %v", rec.runs, rec.lastErr)
		}

		last, ok := svc.LastRun()
		if !ok || last.RunID != "run-1" {
			t.Errorf("LastRun = %v, %v", last, ok)
		}
	})

	t.Run("render failure writes nothing", func(t *testing.T) {
		renderErr := errors.New("template exploded")
		writer := &MockWriter{}
		rec := newFakeRecorder()
		svc := newTestStorefront(&MockGatherer{result: found}, writer, rec,
			&MockRenderer{name: "index.html"},
			&MockRenderer{name: "feed.xml", err: renderErr},
		)

		_, err := svc.Run(ctx)
		if !errors.Is(err, renderErr) {
			t.Errorf("error = %v, want render error", err)
		}
		if len(writer.written) != 0 {
			t.Errorf("written = %v, want none", writer.written)
		}
		if !errors.Is(rec.lastErr, renderErr) {
			t.Errorf("recorded error = %v", rec.lastErr)
		}
		if _, ok := svc.LastRun(); ok {
			t.Error("failed run should not become the last run")
		}
	})

	t.Run("write failure is returned", func(t *testing.T) {
		writeErr := errors.New("disk full")
		svc := newTestStorefront(&MockGatherer{result: found}, &MockWriter{err: writeErr}, nil, &MockRenderer{name: "index.html"})

		if _, err := svc.Run(ctx); !errors.Is(err, writeErr) {
			t.Errorf("error = %v, want write error", err)
		}
	})

	t.Run("empty gather still publishes", func(t *testing.T) {
		html := &MockRenderer{name: "index.html"}
		writer := &MockWriter{}
		svc := newTestStorefront(&MockGatherer{result: GatherResult{Products: []domain.Product{}}}, writer, nil, html)

		report, err := svc.Run(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Products) != 0 || len(writer.written) != 1 {
			t.Errorf("products = %d written = %d", len(report.Products), len(writer.written))
		}
		if html.products == nil {
			t.Error("renderers should get an empty, non-nil list")
		}
	})

	t.Run("cancelled context aborts before rendering", func(t *testing.T) {
		writer := &MockWriter{}
		svc := newTestStorefront(&MockGatherer{result: found}, writer, nil, &MockRenderer{name: "index.html"})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := svc.Run(cctx); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if len(writer.written) != 0 {
			t.Error("nothing should be written")
		}
	})

	t.Run("one run at a time", func(t *testing.T) {
		gatherer := &MockGatherer{result: found, started: make(chan struct{}), release: make(chan struct{})}
		svc := newTestStorefront(gatherer, &MockWriter{}, nil, &MockRenderer{name: "index.html"})

		var wg sync.WaitGroup
		var firstErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, firstErr = svc.Run(ctx)
		}()

		<-gatherer.started
		if _, err := svc.Run(ctx); !errors.Is(err, domain.ErrRunInProgress) {
			t.Errorf("error = %v, want ErrRunInProgress", err)
		}
		close(gatherer.release)
		wg.Wait()

		if firstErr != nil {
			t.Errorf("first run error = %v", firstErr)
		}
		if gatherer.calls != 1 {
			t.Errorf("gather calls = %d, want 1", gatherer.calls)
		}
	})
}

func TestStorefrontAPIAvailable(t *testing.T) {
	svc := NewStorefrontService(&MockGatherer{}, nil, &MockWriter{}, StorefrontServiceConfig{}, nil, nil)
	if svc.APIAvailable() {
		t.Error("expected API to be unavailable")
	}
	if _, ok := svc.LastRun(); ok {
		t.Error("no run yet")
	}
}
