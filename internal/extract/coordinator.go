package extract

import (
	"context"
	"log/slog"

	"github.com/crawlkit/shopscraper/internal/dom"
	"github.com/crawlkit/shopscraper/internal/models"
	"github.com/crawlkit/shopscraper/internal/normalize"
)

// Coordinator runs the three readers in priority order over a single page
// and merges their partial results into one Product record. Stages are
// strictly ordered with no backtracking; a later stage only fills fields
// the earlier stages left empty.
type Coordinator struct {
	structured *StructuredDataReader
	script     *ScriptStateReader
	selectors  *SelectorReader
	logger     *slog.Logger
}

func NewCoordinator() *Coordinator {
	script := NewScriptStateReader()
	return &Coordinator{
		structured: NewStructuredDataReader(),
		script:     script,
		selectors:  NewSelectorReader(script),
		logger:     slog.Default().With("component", "coordinator"),
	}
}

// Extract produces a fresh Product record for the page. The coordinator
// holds no state across pages; concurrent invocations for different pages
// never interfere. Only fatal page errors are returned.
func (c *Coordinator) Extract(ctx context.Context, page dom.Page) (*models.Product, error) {
	pageURL := page.URL()
	product := models.NewProduct(pageURL)
	var fields Fields

	structuredFields, raw, err := c.structured.Read(page)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		product.StructuredDataRaw = raw
		fields.Merge(structuredFields)
		if structuredFields.ContributedCritical() {
			product.Provenance = models.ProvenanceStructuredData
		}
		c.logger.Debug("structured data found", "url", pageURL)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if fields.MissingCritical() {
		scriptFields, err := c.script.Read(page)
		if err != nil {
			return nil, err
		}
		before := fields
		fields.Merge(scriptFields)
		if product.Provenance == models.ProvenanceNone && contributedCritical(before, fields) {
			product.Provenance = models.ProvenanceScriptState
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if fields.MissingCritical() || len(fields.Images) == 0 {
		selectorFields, err := c.selectors.Read(page, product.Domain)
		if err != nil {
			return nil, err
		}
		before := fields
		fields.Merge(selectorFields)
		if product.Provenance == models.ProvenanceNone && contributedCritical(before, fields) {
			product.Provenance = models.ProvenanceSelectors
		}
	}

	if len(fields.Images) > 0 {
		fields.Images = normalize.LargestImages(fields.Images)
	}

	product.Title = fields.Title
	product.Description = fields.Description
	product.Price = fields.Price
	product.Currency = fields.Currency
	product.SKU = fields.SKU
	product.Images = fields.Images
	if product.Images == nil {
		product.Images = make([]string, 0)
	}

	c.logger.Info("extraction finished",
		"url", pageURL,
		"provenance", product.Provenance,
		"has_title", product.Title != nil,
		"has_price", product.Price != nil,
		"images", len(product.Images))

	return product, nil
}

// contributedCritical reports whether the merge gained a critical field
// the earlier stages had not supplied.
func contributedCritical(before, after Fields) bool {
	return (before.Title == nil && after.Title != nil) ||
		(before.Price == nil && after.Price != nil)
}
