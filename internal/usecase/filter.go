package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/petitecurve/storefront/internal/domain"
)

// Filter decides whether a product is good enough and relevant enough
type Filter struct {
	sizeGate *regexp.Regexp
}

// NewFilter compiles the size gate expression
func NewFilter(sizePattern string) (*Filter, error) {
	if sizePattern == "" {
		sizePattern = domain.DefaultSizePattern
	}
	re, err := regexp.Compile(sizePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: size pattern: %v", domain.ErrInvalidConfig, err)
	}
	return &Filter{sizeGate: re}, nil
}

// Passes reports whether p has a rating and review count at or above the
// thresholds and mentions a gated size in its title or features.
func (f *Filter) Passes(p domain.Product, minStars float64, minReviews int) bool {
	if p.Rating == nil || p.Reviews == nil || *p.Rating == 0 || *p.Reviews == 0 {
		return false
	}
	if *p.Rating < minStars || *p.Reviews < minReviews {
		return false
	}
	return f.SizeGate(p)
}

// SizeGate reports whether the title or any feature matches the size pattern
func (f *Filter) SizeGate(p domain.Product) bool {
	text := strings.Join(append([]string{p.RawTitle}, p.Features...), " ")
	return f.sizeGate.MatchString(text)
}
