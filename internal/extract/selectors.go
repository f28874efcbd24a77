package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/crawlkit/shopscraper/internal/dom"
	"github.com/crawlkit/shopscraper/internal/normalize"
)

// SelectorReader pulls fields straight from the rendered DOM using the
// domain's selector table. Scalar fields take the first selector yielding
// non-empty text; images are unioned across every selector because
// galleries split across img tags, picture sources and lazy-load
// attributes.
type SelectorReader struct {
	logger *slog.Logger
	script *ScriptStateReader
}

func NewSelectorReader(script *ScriptStateReader) *SelectorReader {
	if script == nil {
		script = NewScriptStateReader()
	}
	return &SelectorReader{
		logger: slog.Default().With("component", "selector_reader"),
		script: script,
	}
}

var (
	currencyAttributes = []string{"data-currency", "currency", "data-currency-code"}

	currencyMetaSelectors = []string{
		`meta[property="product:price:currency"]`,
		`meta[property="og:price:currency"]`,
		`meta[itemprop="priceCurrency"]`,
	}

	skuMetaSelectors = []string{
		`meta[itemprop="sku"]`,
		`meta[property="product:retailer_item_id"]`,
		`meta[name="product-id"]`,
		`meta[name="sku"]`,
	}

	skuDataAttributes = []string{"data-product-id", "data-sku", "data-item-id", "data-product-code"}

	// Prefixed-id and bare-digit patterns applied to URL path segments.
	skuSegmentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Za-z]{1,3}-?\d{5,}[A-Za-z]?$`),
		regexp.MustCompile(`^\d{6,}$`),
	}

	imageAttributePreference = []string{"src", "data-src", "data-lazy-src", "data-original"}
)

func (r *SelectorReader) Read(page dom.Page, domain string) (Fields, error) {
	profile := ProfileFor(domain)
	table := profile.Selectors
	var fields Fields

	title, err := r.firstText(page, table.Title)
	if err != nil {
		return fields, err
	}
	if title != "" {
		fields.Title = strPtr(title)
	}

	description, err := r.firstText(page, table.Description)
	if err != nil {
		return fields, err
	}
	if description != "" {
		fields.Description = strPtr(description)
	}

	if err := r.readPrice(page, table.Price, &fields); err != nil {
		return fields, err
	}

	if fields.Currency == nil {
		if err := r.readCurrency(page, profile, &fields); err != nil {
			return fields, err
		}
	}

	if err := r.readSKU(page, table.SKU, &fields); err != nil {
		return fields, err
	}

	images, err := r.readImages(page, profile)
	if err != nil {
		return fields, err
	}
	fields.Images = images

	return fields, nil
}

// firstText tries each selector in order and returns the first non-empty
// trimmed text. Probe failures count as absence; only fatal page errors
// propagate.
func (r *SelectorReader) firstText(page dom.Page, selectors []string) (string, error) {
	for _, selector := range selectors {
		el, err := page.QueryOne(selector)
		if err != nil {
			if dom.IsFatal(err) {
				return "", err
			}
			continue
		}
		if el == nil {
			continue
		}
		text, err := el.Text()
		if err != nil {
			if dom.IsFatal(err) {
				return "", err
			}
			continue
		}
		if trimmed := normalize.CollapseEmpty(text); trimmed != "" {
			return trimmed, nil
		}
	}
	return "", nil
}

// readPrice takes the first selector whose text parses as a price and
// opportunistically detects the currency from the same element's text.
func (r *SelectorReader) readPrice(page dom.Page, selectors []string, fields *Fields) error {
	for _, selector := range selectors {
		el, err := page.QueryOne(selector)
		if err != nil {
			if dom.IsFatal(err) {
				return err
			}
			continue
		}
		if el == nil {
			continue
		}
		text, err := el.Text()
		if err != nil {
			if dom.IsFatal(err) {
				return err
			}
			continue
		}
		price, ok := normalize.Price(text)
		if !ok {
			continue
		}
		fields.Price = floatPtr(price)
		if currency := normalize.CurrencyIn(text); currency != "" {
			fields.Currency = strPtr(currency)
		}
		return nil
	}
	return nil
}

// readCurrency runs the currency fallback chain: the site's currency
// selectors (attributes before text), page meta tags, the URL locale
// segment, and finally the script-state globals. Each step is independent
// and the order is significant.
func (r *SelectorReader) readCurrency(page dom.Page, profile *Profile, fields *Fields) error {
	for _, selector := range profile.Selectors.Currency {
		el, err := page.QueryOne(selector)
		if err != nil {
			if dom.IsFatal(err) {
				return err
			}
			continue
		}
		if el == nil {
			continue
		}
		for _, attr := range currencyAttributes {
			value, err := el.Attribute(attr)
			if err != nil {
				continue
			}
			if currency := normalize.Currency(value); currency != "" {
				fields.Currency = strPtr(currency)
				return nil
			}
		}
		if text, err := el.Text(); err == nil {
			if currency := normalize.Currency(text); currency != "" {
				fields.Currency = strPtr(currency)
				return nil
			}
			if currency := normalize.CurrencyIn(text); currency != "" {
				fields.Currency = strPtr(currency)
				return nil
			}
		}
	}

	for _, selector := range currencyMetaSelectors {
		el, err := page.QueryOne(selector)
		if err != nil {
			if dom.IsFatal(err) {
				return err
			}
			continue
		}
		if el == nil {
			continue
		}
		content, err := el.Attribute("content")
		if err != nil {
			continue
		}
		if currency := normalize.Currency(content); currency != "" {
			fields.Currency = strPtr(currency)
			return nil
		}
	}

	if currency := currencyFromLocaleSegment(firstPathSegment(page.URL())); currency != "" {
		fields.Currency = strPtr(currency)
		return nil
	}

	state, err := r.script.PageState(page)
	if err != nil {
		return err
	}
	if state != nil {
		if currency := CurrencyHint(state); currency != "" {
			fields.Currency = strPtr(currency)
		}
	}
	return nil
}

// readSKU tries the site's SKU selectors, then the fallback chain: URL
// path segment patterns, meta tags, script-state globals, and a generic
// data-attribute probe.
func (r *SelectorReader) readSKU(page dom.Page, selectors []string, fields *Fields) error {
	sku, err := r.firstText(page, selectors)
	if err != nil {
		return err
	}
	if sku != "" {
		fields.SKU = strPtr(sku)
		return nil
	}

	if sku := skuFromPath(page.URL()); sku != "" {
		fields.SKU = strPtr(sku)
		return nil
	}

	for _, selector := range skuMetaSelectors {
		el, err := page.QueryOne(selector)
		if err != nil {
			if dom.IsFatal(err) {
				return err
			}
			continue
		}
		if el == nil {
			continue
		}
		content, err := el.Attribute("content")
		if err != nil {
			continue
		}
		if trimmed := normalize.CollapseEmpty(content); trimmed != "" {
			fields.SKU = strPtr(trimmed)
			return nil
		}
	}

	state, err := r.script.PageState(page)
	if err != nil {
		return err
	}
	if state != nil {
		if sku := SKUHint(state); sku != "" {
			fields.SKU = strPtr(sku)
			return nil
		}
	}

	for _, attr := range skuDataAttributes {
		el, err := page.QueryOne("[" + attr + "]")
		if err != nil {
			if dom.IsFatal(err) {
				return err
			}
			continue
		}
		if el == nil {
			continue
		}
		value, err := el.Attribute(attr)
		if err != nil {
			continue
		}
		if trimmed := normalize.CollapseEmpty(value); trimmed != "" {
			fields.SKU = strPtr(trimmed)
			return nil
		}
	}
	return nil
}

func skuFromPath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	for _, segment := range strings.Split(u.Path, "/") {
		for _, pattern := range skuSegmentPatterns {
			if pattern.MatchString(segment) {
				return segment
			}
		}
	}
	return ""
}

// readImages unions candidates across every image selector, applies the
// universal filters, then the domain's override hooks: the per-domain URL
// filter, the supplementary JSON-in-page search, and the lazy-load
// recovery pass.
func (r *SelectorReader) readImages(page dom.Page, profile *Profile) ([]string, error) {
	baseURL := page.URL()
	var candidates []string

	for _, selector := range profile.Selectors.Images {
		elements, err := page.QueryAll(selector)
		if err != nil {
			if dom.IsFatal(err) {
				return nil, err
			}
			continue
		}
		for _, el := range elements {
			u, err := imageURLOf(el)
			if err != nil {
				if dom.IsFatal(err) {
					return nil, err
				}
				continue
			}
			if u != "" {
				candidates = append(candidates, u)
			}
		}
	}

	images := cleanImages(candidates, baseURL)
	if profile.ImageURLOK != nil {
		images = filterByProfile(images, profile.ImageURLOK)
	}

	if profile.DeepImageSearch {
		deep, err := r.deepImageSearch(page, baseURL, profile)
		if err != nil {
			return nil, err
		}
		images = dedupe(append(images, deep...))
	}

	if len(profile.LazyLoadHosts) > 0 {
		recovered, err := r.lazyLoadRecovery(page, baseURL, profile)
		if err != nil {
			return nil, err
		}
		images = dedupe(append(images, recovered...))
	}

	return images, nil
}

var imageKeyPattern = regexp.MustCompile(`(?i)^(images?|gallery|galleryImages|photos?|pictures?|media)$`)

// deepImageSearch walks the script-state object graph, depth bounded, for
// keys that look image-bearing.
func (r *SelectorReader) deepImageSearch(page dom.Page, baseURL string, profile *Profile) ([]string, error) {
	state, err := r.script.PageState(page)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}
	candidates := collectStringsByKey(state, func(key string) bool {
		return imageKeyPattern.MatchString(key)
	}, deepSearchMaxDepth, 40)

	images := cleanImages(candidates, baseURL)
	if profile.ImageURLOK != nil {
		images = filterByProfile(images, profile.ImageURLOK)
	}
	return images, nil
}

// lazyLoadRecovery scrolls the page in stages to trigger lazy loaders,
// then re-scans img elements restricted to the domain's CDN hostnames.
func (r *SelectorReader) lazyLoadRecovery(page dom.Page, baseURL string, profile *Profile) ([]string, error) {
	for i := 1; i <= 3; i++ {
		if err := page.ScrollBy(800); err != nil {
			if dom.IsFatal(err) {
				return nil, err
			}
			break
		}
		page.WaitFor("img", 300*time.Millisecond)
	}

	elements, err := page.QueryAll("img")
	if err != nil {
		if dom.IsFatal(err) {
			return nil, err
		}
		return nil, nil
	}

	var candidates []string
	for _, el := range elements {
		u, err := imageURLOf(el)
		if err != nil {
			if dom.IsFatal(err) {
				return nil, err
			}
			continue
		}
		if u != "" && hostIn(normalize.ResolveURL(u, baseURL), profile.LazyLoadHosts) {
			candidates = append(candidates, u)
		}
	}

	images := cleanImages(candidates, baseURL)
	if profile.ImageURLOK != nil {
		images = filterByProfile(images, profile.ImageURLOK)
	}
	return images, nil
}

// imageURLOf resolves one element to a candidate image URL. source
// elements prefer srcset over src; img elements walk the src and
// lazy-load attribute chain and, failing that, inspect the first source
// child of their parent picture element.
func imageURLOf(el dom.Element) (string, error) {
	tag := ""
	if result, err := el.Evaluate(`el => el.tagName.toLowerCase()`); err == nil {
		tag, _ = result.(string)
	} else if dom.IsFatal(err) {
		return "", err
	}

	if tag == "source" {
		for _, attr := range []string{"srcset", "data-srcset", "src"} {
			value, err := el.Attribute(attr)
			if err != nil || value == "" {
				continue
			}
			if attr == "src" {
				return value, nil
			}
			if candidate := firstSrcsetCandidate(value); candidate != "" {
				return candidate, nil
			}
		}
		return "", nil
	}

	for _, attr := range imageAttributePreference {
		value, err := el.Attribute(attr)
		if err == nil && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}
	for _, attr := range []string{"data-srcset", "srcset"} {
		value, err := el.Attribute(attr)
		if err == nil && value != "" {
			if candidate := firstSrcsetCandidate(value); candidate != "" {
				return candidate, nil
			}
		}
	}

	if tag == "img" {
		result, err := el.Evaluate(`el => {
			const picture = el.closest('picture');
			if (!picture) return '';
			const source = picture.querySelector('source');
			if (!source) return '';
			return source.getAttribute('srcset') || source.getAttribute('data-srcset') || source.getAttribute('src') || '';
		}`)
		if err != nil {
			if dom.IsFatal(err) {
				return "", err
			}
			return "", nil
		}
		if srcset, ok := result.(string); ok && srcset != "" {
			return firstSrcsetCandidate(srcset), nil
		}
	}

	return "", nil
}

func filterByProfile(images []string, ok func(string) bool) []string {
	out := make([]string, 0, len(images))
	for _, u := range images {
		if ok(u) {
			out = append(out, u)
		}
	}
	return out
}

func hostIn(u string, hosts []string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func firstPathSegment(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	for _, segment := range strings.Split(u.Path, "/") {
		if segment != "" {
			return segment
		}
	}
	return ""
}
