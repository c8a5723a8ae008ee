package paapi

// Wire types for the PA-API 5.0 SearchItems operation. Every nested object
// is a pointer because the API omits whatever it has no data for.

type searchItemsRequest struct {
	Keywords    string   `json:"Keywords"`
	SearchIndex string   `json:"SearchIndex,omitempty"`
	ItemCount   int      `json:"ItemCount,omitempty"`
	ItemPage    int      `json:"ItemPage,omitempty"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace,omitempty"`
	Resources   []string `json:"Resources,omitempty"`
}

// SearchItemsResponse is the SearchItems response body
type SearchItemsResponse struct {
	SearchResult *SearchResult `json:"SearchResult,omitempty"`
	Errors       []ErrorData   `json:"Errors,omitempty"`
}

type SearchResult struct {
	Items            []Item `json:"Items,omitempty"`
	TotalResultCount int    `json:"TotalResultCount,omitempty"`
	SearchURL        string `json:"SearchURL,omitempty"`
}

type Item struct {
	ASIN            string           `json:"ASIN,omitempty"`
	DetailPageURL   string           `json:"DetailPageURL,omitempty"`
	ItemInfo        *ItemInfo        `json:"ItemInfo,omitempty"`
	Images          *Images          `json:"Images,omitempty"`
	Offers          *Offers          `json:"Offers,omitempty"`
	CustomerReviews *CustomerReviews `json:"CustomerReviews,omitempty"`
}

type ItemInfo struct {
	Title    *SingleStringValued `json:"Title,omitempty"`
	Features *MultiValued        `json:"Features,omitempty"`
}

type SingleStringValued struct {
	DisplayValue *string `json:"DisplayValue,omitempty"`
}

type MultiValued struct {
	DisplayValues []string `json:"DisplayValues,omitempty"`
}

type Images struct {
	Primary *ImageType `json:"Primary,omitempty"`
}

type ImageType struct {
	Large *ImageSize `json:"Large,omitempty"`
}

type ImageSize struct {
	URL    *string `json:"URL,omitempty"`
	Height int     `json:"Height,omitempty"`
	Width  int     `json:"Width,omitempty"`
}

type Offers struct {
	Listings []*OfferListing `json:"Listings,omitempty"`
}

type OfferListing struct {
	Price *OfferPrice `json:"Price,omitempty"`
}

type OfferPrice struct {
	Amount        *float64 `json:"Amount,omitempty"`
	Currency      string   `json:"Currency,omitempty"`
	DisplayAmount *string  `json:"DisplayAmount,omitempty"`
}

type CustomerReviews struct {
	Count      *int        `json:"Count,omitempty"`
	StarRating *StarRating `json:"StarRating,omitempty"`
}

type StarRating struct {
	Value *float64 `json:"Value,omitempty"`
}

// ErrorData is one entry of the Errors array
type ErrorData struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}
