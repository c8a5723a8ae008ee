package usecase

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/petitecurve/storefront/internal/domain"
)

const (
	defaultTitle      = "Amazon Item"
	titleMaxRunes     = 95
	titleKeepRunes    = 90
	titleEllipsis     = "…"
)

// Extractor normalizes decoded search items into storefront products
type Extractor struct {
	partnerTag  string
	urlTemplate string
}

// NewExtractor creates an Extractor. urlTemplate takes the ASIN and the
// partner tag, in that order.
func NewExtractor(partnerTag, urlTemplate string) *Extractor {
	if urlTemplate == "" {
		urlTemplate = domain.DefaultProductURLTemplate
	}
	return &Extractor{partnerTag: partnerTag, urlTemplate: urlTemplate}
}

// Extract maps a raw item to a Product. It never filters; an item without
// an ASIN simply gets an empty URL.
func (e *Extractor) Extract(item domain.RawItem) domain.Product {
	title := defaultTitle
	if item.Title != nil && strings.TrimSpace(*item.Title) != "" {
		title = strings.TrimSpace(*item.Title)
	}

	product := domain.Product{
		ASIN:     item.ASIN,
		Title:    shortenTitle(title),
		RawTitle: title,
		Rating:   item.Rating,
		Reviews:  item.Reviews,
	}

	if item.ASIN != "" {
		product.URL = fmt.Sprintf(e.urlTemplate, url.PathEscape(item.ASIN), url.QueryEscape(e.partnerTag))
	}

	if item.ImageURL != nil {
		product.ImageURL = *item.ImageURL
	}

	if item.PriceAmount != nil {
		product.Price = fmt.Sprintf("$%.2f", *item.PriceAmount)
	}

	if len(item.Features) > 0 {
		product.Features = append([]string(nil), item.Features...)
	}

	return product
}

// shortenTitle keeps titles card-sized: anything over 95 runes is cut to 90
// plus an ellipsis.
func shortenTitle(title string) string {
	if utf8.RuneCountInString(title) <= titleMaxRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimRight(string(runes[:titleKeepRunes]), " ") + titleEllipsis
}
