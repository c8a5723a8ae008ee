package paapi

import (
	"strings"

	"github.com/petitecurve/storefront/internal/domain"
)

// MapSearchResult converts the SearchItems wire result to the domain boundary type
func MapSearchResult(result *SearchResult) *domain.SearchResult {
	if result == nil {
		return &domain.SearchResult{}
	}

	items := make([]domain.RawItem, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, MapItem(item))
	}

	return &domain.SearchResult{
		Items:        items,
		TotalResults: result.TotalResultCount,
	}
}

// MapItem flattens one wire item. Each optional path is checked at every
// level; a missing link leaves the field nil.
func MapItem(item Item) domain.RawItem {
	raw := domain.RawItem{ASIN: strings.TrimSpace(item.ASIN)}

	if info := item.ItemInfo; info != nil {
		if info.Title != nil {
			raw.Title = nonEmpty(info.Title.DisplayValue)
		}
		if info.Features != nil && len(info.Features.DisplayValues) > 0 {
			raw.Features = append([]string(nil), info.Features.DisplayValues...)
		}
	}

	if img := item.Images; img != nil && img.Primary != nil && img.Primary.Large != nil {
		raw.ImageURL = nonEmpty(img.Primary.Large.URL)
	}

	if reviews := item.CustomerReviews; reviews != nil {
		raw.Reviews = reviews.Count
		if reviews.StarRating != nil {
			raw.Rating = reviews.StarRating.Value
		}
	}

	// Only the first listing is considered
	if offers := item.Offers; offers != nil && len(offers.Listings) > 0 {
		if listing := offers.Listings[0]; listing != nil && listing.Price != nil {
			raw.PriceAmount = listing.Price.Amount
			raw.PriceDisplay = nonEmpty(listing.Price.DisplayAmount)
		}
	}

	return raw
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
