package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/petitecurve/storefront/internal/domain"
)

var csvHeader = []string{"title", "url", "image", "price", "rating", "reviews", "date"}

// CSVRenderer renders the daily export
type CSVRenderer struct {
	name string
}

// NewCSVRenderer creates a CSV renderer writing artifact name
func NewCSVRenderer(name string) *CSVRenderer {
	return &CSVRenderer{name: name}
}

// Render writes the header and one row per product; the date column is the
// run date
func (r *CSVRenderer) Render(products []domain.Product, now time.Time) (domain.Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to write csv header: %w", err)
	}

	date := now.Format(dateLayout)
	for _, p := range products {
		row := []string{p.Title, p.URL, p.ImageURL, p.Price, formatRating(p.Rating), formatReviews(p.Reviews), date}
		if err := w.Write(row); err != nil {
			return domain.Artifact{}, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to flush csv: %w", err)
	}

	return domain.Artifact{
		Name:        r.name,
		ContentType: "text/csv; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

func formatRating(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

func formatReviews(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
