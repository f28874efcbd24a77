package models

import (
	"net/url"
	"strings"
	"time"
)

// Provenance names the reader that supplied the critical fields
// (title, price) of a product record.
type Provenance string

const (
	ProvenanceStructuredData Provenance = "structured-data"
	ProvenanceScriptState    Provenance = "script-state"
	ProvenanceSelectors      Provenance = "selectors"
	ProvenanceNone           Provenance = "none"
)

// Product is the normalized output record for one product-detail page.
// Scalar fields are pointers: nil means the value could not be extracted,
// never a placeholder.
type Product struct {
	URL               string         `json:"url"`
	Domain            string         `json:"domain"`
	Title             *string        `json:"title"`
	Description       *string        `json:"description"`
	Price             *float64       `json:"price"`
	Currency          *string        `json:"currency"`
	SKU               *string        `json:"sku"`
	Images            []string       `json:"images"`
	Provenance        Provenance     `json:"provenance"`
	StructuredDataRaw map[string]any `json:"structured_data_raw,omitempty"`
	Error             string         `json:"error,omitempty"`
	ScrapedAt         time.Time      `json:"scraped_at"`
}

func NewProduct(rawURL string) *Product {
	return &Product{
		URL:        rawURL,
		Domain:     DomainOf(rawURL),
		Images:     make([]string, 0),
		Provenance: ProvenanceNone,
		ScrapedAt:  time.Now(),
	}
}

// DomainOf derives the lowercase host of a URL without a leading "www.".
// Unparsable input yields an empty domain.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// HasCriticalFields reports whether both gate fields for the extraction
// cascade are present.
func (p *Product) HasCriticalFields() bool {
	return p.Title != nil && p.Price != nil
}

type ScrapeResult struct {
	Product *Product `json:"product,omitempty"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
}
