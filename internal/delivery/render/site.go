// Package render turns the final product list into the published
// storefront artifacts: an HTML page, a CSV export and an RSS feed.
package render

// Caption styles for RSS item descriptions
const (
	CaptionRich  = "rich"
	CaptionShort = "short"
)

const dateLayout = "2006-01-02"

// Site carries the branding shared by the renderers
type Site struct {
	URL             string
	Title           string
	HeaderImage     string
	HeaderAlt       string
	FeedTitle       string
	FeedDescription string
	Disclosure      string
	Tagline         string
	Hashtags        string
	CaptionStyle    string
	FallbackOnEmpty bool
	FallbackTitle   string
	FallbackMessage string
	FallbackImage   string
}
