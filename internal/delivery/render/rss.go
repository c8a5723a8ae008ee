package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/petitecurve/storefront/internal/domain"
)

const shopLine = "Shop ⤵"

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	GUID        rssGUID       `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Description cdata         `xml:"description"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// RSSRenderer renders the RSS 2.0 feed
type RSSRenderer struct {
	name string
	site Site
}

// NewRSSRenderer creates an RSS renderer writing artifact name
func NewRSSRenderer(name string, site Site) *RSSRenderer {
	if site.CaptionStyle == "" {
		site.CaptionStyle = CaptionRich
	}
	return &RSSRenderer{name: name, site: site}
}

// Render emits one item per product. An empty list yields a single
// fallback item when the site asks for one.
func (r *RSSRenderer) Render(products []domain.Product, now time.Time) (domain.Artifact, error) {
	updated := now.UTC().Format(time.RFC1123Z)

	items := make([]rssItem, 0, len(products))
	for _, p := range products {
		guid := p.ASIN
		if guid == "" {
			guid = p.URL
		}
		item := rssItem{
			Title:       p.Title,
			Link:        p.URL,
			GUID:        rssGUID{IsPermaLink: "false", Value: guid},
			PubDate:     updated,
			Description: cdata{Text: r.caption(p)},
		}
		if p.ImageURL != "" {
			item.Enclosure = &rssEnclosure{URL: p.ImageURL, Type: "image/jpeg"}
		}
		items = append(items, item)
	}

	if len(products) == 0 && r.site.FallbackOnEmpty {
		items = append(items, r.fallbackItem(now, updated))
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         r.site.FeedTitle,
			Link:          r.site.URL,
			Description:   r.site.FeedDescription,
			LastBuildDate: updated,
			Items:         items,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to encode %s: %w", r.name, err)
	}
	buf.WriteByte('\n')

	return domain.Artifact{
		Name:        r.name,
		ContentType: "application/rss+xml; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

func (r *RSSRenderer) caption(p domain.Product) string {
	var lines []string
	switch r.site.CaptionStyle {
	case CaptionShort:
		lines = []string{p.Title, p.Price, shopLine, p.URL, r.site.Hashtags}
	default:
		tagline := r.site.Tagline
		if p.Price != "" {
			tagline = p.Price + " · " + r.site.Tagline
		}
		lines = []string{p.Title, tagline, shopLine, p.URL, r.site.Hashtags}
	}
	return joinLines(lines)
}

func (r *RSSRenderer) fallbackItem(now time.Time, updated string) rssItem {
	item := rssItem{
		Title:       r.site.FallbackTitle,
		Link:        r.site.URL,
		GUID:        rssGUID{IsPermaLink: "false", Value: r.site.URL + "fallback-" + now.Format("20060102")},
		PubDate:     updated,
		Description: cdata{Text: joinLines([]string{r.site.FallbackMessage, shopLine, r.site.URL, r.site.Hashtags})},
	}
	if r.site.FallbackImage != "" {
		item.Enclosure = &rssEnclosure{URL: r.site.URL + r.site.FallbackImage, Type: "image/jpeg"}
	}
	return item
}

// joinLines drops blank lines and joins the rest with newlines
func joinLines(lines []string) string {
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
