package domain

// SearchRequest represents one PA-API SearchItems call
type SearchRequest struct {
	Keywords    string
	SearchIndex string
	ItemCount   int
	ItemPage    int
	Resources   []string
}

// RawItem is a search item decoded at the API boundary.
// Nil pointers mean the API omitted the field.
type RawItem struct {
	ASIN         string   `json:"asin"`
	Title        *string  `json:"title,omitempty"`
	Features     []string `json:"features,omitempty"`
	ImageURL     *string  `json:"imageUrl,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	Reviews      *int     `json:"reviews,omitempty"`
	PriceAmount  *float64 `json:"priceAmount,omitempty"`
	PriceDisplay *string  `json:"priceDisplay,omitempty"`
}

// SearchResult is the decoded SearchItems response
type SearchResult struct {
	Items        []RawItem `json:"items"`
	TotalResults int       `json:"totalResults"`
}
