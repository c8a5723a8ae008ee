package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/petitecurve/storefront/internal/domain"
)

//go:embed templates/index.html.tmpl
var templates embed.FS

// HTMLRenderer renders the storefront page
type HTMLRenderer struct {
	name string
	site Site
	tmpl *template.Template
}

type htmlPage struct {
	Title       string
	HeaderImage string
	HeaderAlt   string
	Products    []domain.Product
	Updated     string
	Disclosure  string
}

// NewHTMLRenderer parses the page template
func NewHTMLRenderer(name string, site Site) (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &HTMLRenderer{name: name, site: site, tmpl: tmpl}, nil
}

// Render emits one card per product, or the empty-state block
func (r *HTMLRenderer) Render(products []domain.Product, now time.Time) (domain.Artifact, error) {
	page := htmlPage{
		Title:       r.site.Title,
		HeaderImage: r.site.HeaderImage,
		HeaderAlt:   r.site.HeaderAlt,
		Products:    products,
		Updated:     now.Format(dateLayout),
		Disclosure:  r.site.Disclosure,
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to render %s: %w", r.name, err)
	}

	return domain.Artifact{
		Name:        r.name,
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}
