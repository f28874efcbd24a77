package extract

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crawlkit/shopscraper/internal/dom"
	"github.com/crawlkit/shopscraper/internal/normalize"
)

// StructuredDataReader locates machine-readable Product blocks embedded in
// ld+json script tags. A malformed block is skipped, never aborts discovery
// of the remaining blocks.
type StructuredDataReader struct {
	logger *slog.Logger
}

func NewStructuredDataReader() *StructuredDataReader {
	return &StructuredDataReader{
		logger: slog.Default().With("component", "structured_data_reader"),
	}
}

// Read returns the extracted fields plus the raw block kept for
// diagnostics. A page without a Product block yields empty fields and a
// nil block; that is absence of signal, not an error.
func (r *StructuredDataReader) Read(page dom.Page) (Fields, map[string]any, error) {
	html, err := page.Content()
	if err != nil {
		if dom.IsFatal(err) {
			return Fields{}, nil, err
		}
		r.logger.Debug("could not read page content", "error", err)
		return Fields{}, nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		r.logger.Debug("could not parse page html", "error", err)
		return Fields{}, nil, nil
	}

	var block map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var decoded any
		if err := json.Unmarshal([]byte(s.Text()), &decoded); err != nil {
			return true // skip malformed block, keep scanning
		}
		if found := findProductBlock(decoded); found != nil {
			block = found
			return false
		}
		return true
	})

	if block == nil {
		return Fields{}, nil, nil
	}

	return r.fieldsFromBlock(block, page.URL()), block, nil
}

// findProductBlock picks the first block whose @type equals or includes
// "Product". When no block matches directly, @graph arrays are searched
// one level deep.
func findProductBlock(decoded any) map[string]any {
	blocks := topLevelBlocks(decoded)

	for _, b := range blocks {
		if isProductType(b["@type"]) {
			return b
		}
	}
	for _, b := range blocks {
		graph, ok := b["@graph"].([]any)
		if !ok {
			continue
		}
		for _, node := range graph {
			if m, ok := node.(map[string]any); ok && isProductType(m["@type"]) {
				return m
			}
		}
	}
	return nil
}

func topLevelBlocks(decoded any) []map[string]any {
	switch v := decoded.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func (r *StructuredDataReader) fieldsFromBlock(block map[string]any, pageURL string) Fields {
	var fields Fields

	if title := stringValue(block["name"]); title != "" {
		fields.Title = strPtr(title)
	}
	if desc := stringValue(block["description"]); desc != "" {
		fields.Description = strPtr(desc)
	}
	if sku := stringValue(block["sku"]); sku != "" {
		fields.SKU = strPtr(sku)
	} else if id := stringValue(block["productID"]); id != "" {
		fields.SKU = strPtr(id)
	}

	if offer := firstOffer(block["offers"]); offer != nil {
		if price, ok := normalize.Price(offer["price"]); ok {
			fields.Price = floatPtr(price)
		}
		if currency := normalize.Currency(stringValue(offer["priceCurrency"])); currency != "" {
			fields.Currency = strPtr(currency)
		}
	}

	fields.Images = cleanImages(imageCandidates(block["image"]), pageURL)

	return fields
}

// firstOffer normalizes offers to its first entry; a single offer object is
// treated as a one-element array.
func firstOffer(offers any) map[string]any {
	switch v := offers.(type) {
	case map[string]any:
		return v
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// imageCandidates accepts a single URL string, an object exposing url, or
// an array of either.
func imageCandidates(image any) []string {
	switch v := image.(type) {
	case string:
		return []string{v}
	case map[string]any:
		if u := stringValue(v["url"]); u != "" {
			return []string{u}
		}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, imageCandidates(item)...)
		}
		return out
	}
	return nil
}

// stringValue renders scalar JSON values as trimmed strings; numeric ids
// are common in the wild.
func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}
