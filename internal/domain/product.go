package domain

import "time"

const (
	// DefaultSizePattern accepts extended and plus sizes
	DefaultSizePattern = `(?i)\b(0X|XL|XXL|1X|2X|3X)\b`
	// DefaultProductURLTemplate takes the ASIN and the partner tag
	DefaultProductURLTemplate = "https://www.amazon.com/dp/%s?tag=%s"
)

// Product is one storefront entry extracted from a PA-API search item
type Product struct {
	ASIN     string   `json:"asin"`
	Title    string   `json:"title"`
	RawTitle string   `json:"-"`
	URL      string   `json:"url"` // affiliate link, dedup key within a run
	ImageURL string   `json:"image,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Reviews  *int     `json:"reviews,omitempty"`
	Price    string   `json:"price,omitempty"`
	Features []string `json:"-"`
}

// Tier is one step of the threshold relaxation table
type Tier struct {
	Name       string  `json:"name" mapstructure:"name"`
	MinStars   float64 `json:"minStars" mapstructure:"min_stars"`
	MinReviews int     `json:"minReviews" mapstructure:"min_reviews"`
	Target     int     `json:"target" mapstructure:"target"`
	// RunBelow gates every tier after the first: it only runs while fewer
	// products than this have been gathered. Zero means Target.
	RunBelow int `json:"runBelow,omitempty" mapstructure:"run_below"`
}

// Threshold returns the count a later tier must still be under to run
func (t Tier) Threshold() int {
	if t.RunBelow > 0 {
		return t.RunBelow
	}
	return t.Target
}

// Artifact is a rendered output file
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// RunReport summarises one storefront build
type RunReport struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Products   []Product `json:"products"`
	APICalls   int       `json:"apiCalls"`
	TiersRun   []string  `json:"tiersRun"`
	Artifacts  []string  `json:"artifacts"`
}
