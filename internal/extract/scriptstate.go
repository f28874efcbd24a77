package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crawlkit/shopscraper/internal/dom"
	"github.com/crawlkit/shopscraper/internal/normalize"
)

// ScriptStateReader recovers product data from the hydration state client
// frameworks attach to the page's global scope. Globals are probed in
// order; the first resolving to an object wins and later names are not
// consulted.
type ScriptStateReader struct {
	logger *slog.Logger
}

// Conventional global-state variable names, in trust order.
var stateGlobals = []string{
	"__INITIAL_STATE__",
	"__PRELOADED_STATE__",
	"__NEXT_DATA__",
	"__NUXT__",
	"productData",
}

// Data attributes consulted when no global resolves. Their values are
// JSON-encoded product or state objects.
var stateAttributes = []string{
	"data-product-json",
	"data-product",
	"data-state",
	"data-page",
}

const deepSearchMaxDepth = 8

func NewScriptStateReader() *ScriptStateReader {
	return &ScriptStateReader{
		logger: slog.Default().With("component", "script_state_reader"),
	}
}

func (r *ScriptStateReader) Read(page dom.Page) (Fields, error) {
	state, err := r.PageState(page)
	if err != nil {
		return Fields{}, err
	}
	if state == nil {
		return Fields{}, nil
	}

	product := locateProduct(state)
	if product == nil {
		return Fields{}, nil
	}

	return r.fieldsFromProduct(product, page.URL()), nil
}

// PageState returns the first resolvable script-state object, or nil when
// the page exposes none. Only fatal page errors are returned.
func (r *ScriptStateReader) PageState(page dom.Page) (map[string]any, error) {
	names, _ := json.Marshal(stateGlobals)
	script := fmt.Sprintf(`() => {
		const names = %s;
		for (const name of names) {
			try {
				const value = window[name];
				if (value && typeof value === 'object') {
					return JSON.stringify(value);
				}
			} catch (e) {}
		}
		return null;
	}`, names)

	result, err := page.Evaluate(script)
	if err != nil {
		if dom.IsFatal(err) {
			return nil, err
		}
		r.logger.Debug("global state probe failed", "error", err)
	} else if encoded, ok := result.(string); ok && encoded != "" {
		var state map[string]any
		if json.Unmarshal([]byte(encoded), &state) == nil {
			return state, nil
		}
	}

	return r.stateFromAttributes(page)
}

func (r *ScriptStateReader) stateFromAttributes(page dom.Page) (map[string]any, error) {
	for _, attr := range stateAttributes {
		elements, err := page.QueryAll("[" + attr + "]")
		if err != nil {
			if dom.IsFatal(err) {
				return nil, err
			}
			continue
		}
		for _, el := range elements {
			raw, err := el.Attribute(attr)
			if err != nil || raw == "" {
				continue
			}
			var state map[string]any
			if json.Unmarshal([]byte(raw), &state) != nil {
				continue // unparsable attribute value is absence
			}
			return state, nil
		}
	}
	return nil, nil
}

// locateProduct finds the product sub-object inside an arbitrary state
// tree, trying the conventional homes in order.
func locateProduct(state map[string]any) map[string]any {
	if p := mapAt(state, "product"); p != nil {
		return p
	}
	if p := mapAt(state, "data", "product"); p != nil {
		return p
	}
	if p := mapAt(state, "props", "pageProps", "product"); p != nil {
		return p
	}
	if p := mapAt(state, "productData"); p != nil {
		return p
	}
	if products, ok := state["products"].([]any); ok && len(products) > 0 {
		if p, ok := products[0].(map[string]any); ok {
			return p
		}
	}
	return nil
}

func mapAt(m map[string]any, path ...string) map[string]any {
	current := m
	for _, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	if len(path) == 0 {
		return nil
	}
	return current
}

// Alias lists per logical field, in trust order. New aliases are additive.
var (
	titleAliases       = []string{"title", "name", "productName", "displayName"}
	descriptionAliases = []string{"description", "shortDescription", "summary"}
	skuAliases         = []string{"sku", "skuId", "productId", "id", "code"}
	priceAliases       = []string{"price", "priceValue", "finalPrice"}
	pricingAliases     = []string{"finalPrice", "price", "currentPrice"}
	currencyAliases    = []string{"currency", "currencyCode", "priceCurrency"}
)

// firstStringAlias returns the value of the first alias key whose string
// form is non-empty after whitespace collapsing, or "" when none resolve.
func firstStringAlias(obj map[string]any, aliases []string) string {
	for _, alias := range aliases {
		if s := normalize.CollapseEmpty(stringValue(obj[alias])); s != "" {
			return s
		}
	}
	return ""
}

func (r *ScriptStateReader) fieldsFromProduct(product map[string]any, pageURL string) Fields {
	var fields Fields

	if title := firstStringAlias(product, titleAliases); title != "" {
		fields.Title = strPtr(title)
	}
	if desc := firstStringAlias(product, descriptionAliases); desc != "" {
		fields.Description = strPtr(desc)
	}
	if sku := firstStringAlias(product, skuAliases); sku != "" {
		fields.SKU = strPtr(sku)
	}

	if price, ok := priceFromObject(product); ok {
		fields.Price = floatPtr(price)
	}
	if currency := currencyFromObject(product); currency != "" {
		fields.Currency = strPtr(currency)
	}

	fields.Images = cleanImages(scriptImageCandidates(product), pageURL)

	return fields
}

func priceFromObject(obj map[string]any) (float64, bool) {
	for _, alias := range priceAliases {
		if value, ok := obj[alias]; ok {
			if price, ok := normalize.Price(value); ok {
				return price, true
			}
		}
	}
	if pricing := mapAt(obj, "pricing"); pricing != nil {
		for _, alias := range pricingAliases {
			if value, ok := pricing[alias]; ok {
				if price, ok := normalize.Price(value); ok {
					return price, true
				}
			}
		}
	}
	if variants, ok := obj["variants"].([]any); ok && len(variants) > 0 {
		if first, ok := variants[0].(map[string]any); ok {
			for _, alias := range priceAliases {
				if value, ok := first[alias]; ok {
					if price, ok := normalize.Price(value); ok {
						return price, true
					}
				}
			}
		}
	}
	return 0, false
}

func currencyFromObject(obj map[string]any) string {
	for _, alias := range currencyAliases {
		if currency := normalize.Currency(stringValue(obj[alias])); currency != "" {
			return currency
		}
	}
	if pricing := mapAt(obj, "pricing"); pricing != nil {
		for _, alias := range currencyAliases {
			if currency := normalize.Currency(stringValue(pricing[alias])); currency != "" {
				return currency
			}
		}
	}
	return ""
}

// scriptImageCandidates accepts an images array (entries either URL
// strings or objects exposing url/src) or a singular image field.
func scriptImageCandidates(obj map[string]any) []string {
	if images, ok := obj["images"].([]any); ok {
		var out []string
		for _, item := range images {
			out = append(out, stringsWithin(item)...)
		}
		if len(out) > 0 {
			return out
		}
	}
	if image, ok := obj["image"]; ok {
		return stringsWithin(image)
	}
	return nil
}

// CurrencyHint deep-searches a state tree for a plausible currency code.
// Used as the last step of the selector reader's currency fallback chain.
func CurrencyHint(state map[string]any) string {
	var found string
	walkByKey(state, func(key string) bool {
		lower := strings.ToLower(key)
		return lower == "currency" || lower == "currencycode" || lower == "pricecurrency"
	}, deepSearchMaxDepth, func(value any) bool {
		if code := normalize.Currency(stringValue(value)); code != "" {
			found = code
			return false
		}
		return true
	})
	return found
}

// SKUHint deep-searches a state tree for a product identifier.
func SKUHint(state map[string]any) string {
	var found string
	walkByKey(state, func(key string) bool {
		lower := strings.ToLower(key)
		return lower == "sku" || lower == "skuid" || lower == "productid"
	}, deepSearchMaxDepth, func(value any) bool {
		if s := stringValue(value); s != "" {
			found = s
			return false
		}
		return true
	})
	return found
}
