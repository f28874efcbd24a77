package extract

import (
	"regexp"
	"strings"
)

// SelectorTable holds the ordered CSS selector lists for one site. Scalar
// fields stop at the first selector yielding non-empty text; image
// selectors are unioned because galleries split across container types.
type SelectorTable struct {
	Title       []string
	Description []string
	Price       []string
	SKU         []string
	Currency    []string
	Images      []string
}

// Profile bundles a site's selector table with its optional override
// hooks. Hooks are fully isolated per domain: a defect in one domain's
// override cannot affect another's, because a profile is only consulted
// for the domain it was registered under.
type Profile struct {
	Selectors SelectorTable

	// ImageURLOK, when set, additionally requires image URLs to match the
	// site's product-image path convention. Applied after the universal
	// filters, never instead of them.
	ImageURLOK func(url string) bool

	// DeepImageSearch enables the supplementary JSON-in-page image search
	// over the script-state object graph.
	DeepImageSearch bool

	// LazyLoadHosts, when non-empty, enables the scroll-and-rescan
	// recovery pass, restricted to img elements served from these CDN
	// hostnames.
	LazyLoadHosts []string
}

var genericTable = SelectorTable{
	Title: []string{
		"h1",
		".product-title",
		".product-name",
		"[itemprop=name]",
	},
	Description: []string{
		".product-description",
		"[itemprop=description]",
		"#description",
		".description",
	},
	Price: []string{
		".price",
		".product-price",
		"[itemprop=price]",
		".current-price",
		".price-value",
	},
	SKU: []string{
		"[itemprop=sku]",
		".product-sku",
		".sku",
	},
	Currency: []string{
		"[itemprop=priceCurrency]",
		"[data-currency]",
		"[data-currency-code]",
		".currency",
	},
	Images: []string{
		".product-gallery img",
		".product-images img",
		".gallery img",
		"picture source",
		"[itemprop=image]",
		".product-image img",
	},
}

var amazonImagePath = regexp.MustCompile(`/images/I/[^/]+\.(?:jpg|jpeg|png|webp)`)

var profiles = map[string]*Profile{
	"amazon.com": amazonProfile(),
	"amazon.de":  amazonProfile(),
	"amazon.fr":  amazonProfile(),
	"zalando.de": {
		Selectors: SelectorTable{
			Title:       []string{"h1", "[data-testid=product-title]"},
			Description: []string{"[data-testid=pdp-accordion-details]", ".product-description"},
			Price:       []string{"[data-testid=price]", ".price", "span[class*=price]"},
			SKU:         []string{"[data-testid=article-number]"},
			Currency:    []string{"[data-currency]"},
			Images:      []string{"ul[aria-label*=Produktbilder] img", "[data-testid=image-gallery] img", "picture source", "img"},
		},
		ImageURLOK: func(u string) bool {
			lower := strings.ToLower(u)
			if !strings.Contains(lower, "/article/") {
				return false
			}
			return strings.HasSuffix(pathOnly(lower), ".jpg") ||
				strings.HasSuffix(pathOnly(lower), ".jpeg") ||
				strings.HasSuffix(pathOnly(lower), ".webp")
		},
		LazyLoadHosts: []string{"img01.ztat.net", "mosaic01.ztat.net", "mosaic02.ztat.net"},
	},
	"asos.com": {
		Selectors: SelectorTable{
			Title:       []string{"h1", ".product-hero h1"},
			Description: []string{".product-description", "#product-details"},
			Price:       []string{"[data-testid=current-price]", ".current-price", ".price"},
			SKU:         []string{".product-code span", "[data-testid=product-code]"},
			Currency:    []string{"[data-currency]"},
			Images:      []string{".gallery img", ".fullImageContainer img", "picture source"},
		},
		DeepImageSearch: true,
	},
	"etsy.com": {
		Selectors: SelectorTable{
			Title:       []string{"h1[data-buy-box-listing-title]", "h1"},
			Description: []string{"[data-product-details-description-text-content]", ".description"},
			Price:       []string{"[data-buy-box-region=price] p", ".wt-text-title-larger", ".price"},
			SKU:         []string{"[data-listing-id]"},
			Currency:    []string{"[data-buy-box-region=price] [data-currency]"},
			Images:      []string{"ul[data-carousel-pane-list] img", ".listing-page-image-carousel-component img", "picture source"},
		},
		DeepImageSearch: true,
	},
	"ebay.com": {
		Selectors: SelectorTable{
			Title:       []string{"h1.x-item-title__mainTitle", "h1"},
			Description: []string{".x-item-description", "#desc_div"},
			Price:       []string{".x-price-primary", "[itemprop=price]", ".price"},
			SKU:         []string{"[data-testid=ux-labels-values__values] span"},
			Currency:    []string{"[itemprop=priceCurrency]"},
			Images:      []string{".ux-image-carousel-item img", ".ux-image-grid img", "picture source"},
		},
		LazyLoadHosts: []string{"i.ebayimg.com"},
	},
}

func amazonProfile() *Profile {
	return &Profile{
		Selectors: SelectorTable{
			Title:       []string{"#productTitle", "h1"},
			Description: []string{"#feature-bullets", "#productDescription"},
			Price:       []string{".a-price .a-offscreen", ".a-price-whole", "#priceblock_ourprice", "#priceblock_dealprice"},
			SKU:         []string{"#ASIN", "[data-asin]"},
			Currency:    []string{".a-price-symbol"},
			Images:      []string{"#altImages ul li img", "#landingImage", "#imgTagWrapperId img", "picture source"},
		},
		ImageURLOK: func(u string) bool {
			lower := strings.ToLower(u)
			if !strings.Contains(lower, "media-amazon.com") && !strings.Contains(lower, "images-amazon.com") {
				return false
			}
			return amazonImagePath.MatchString(lower)
		},
	}
}

// ProfileFor looks up a site profile by domain, trying the full domain
// first and then progressively stripping subdomain labels. Unknown domains
// get the generic profile.
func ProfileFor(domain string) *Profile {
	domain = strings.ToLower(strings.TrimSpace(domain))
	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		if p, ok := profiles[strings.Join(labels[i:], ".")]; ok {
			return p
		}
	}
	return &Profile{Selectors: genericTable}
}

func pathOnly(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

// countryCurrency maps URL locale path segments to a best-effort currency
// hint. Multi-currency countries make this a heuristic, never
// authoritative; it is the second-to-last step of the fallback chain.
var countryCurrency = map[string]string{
	"us": "USD", "gb": "GBP", "uk": "GBP", "de": "EUR", "fr": "EUR",
	"es": "EUR", "it": "EUR", "nl": "EUR", "at": "EUR", "be": "EUR",
	"ie": "EUR", "pt": "EUR", "fi": "EUR", "pl": "PLN", "cz": "CZK",
	"se": "SEK", "dk": "DKK", "no": "NOK", "ch": "CHF", "jp": "JPY",
	"cn": "CNY", "in": "INR", "ru": "RUB", "ua": "UAH", "kz": "KZT",
	"ca": "CAD", "au": "AUD", "nz": "NZD", "br": "BRL", "mx": "MXN",
	"tr": "TRY",
}

// currencyFromLocaleSegment maps the first path segment of a URL ("/de/",
// "/en-gb/") to a currency hint, or "".
func currencyFromLocaleSegment(segment string) string {
	segment = strings.ToLower(strings.TrimSpace(segment))
	if segment == "" {
		return ""
	}
	if code, ok := countryCurrency[segment]; ok {
		return code
	}
	// Locale-style segments carry the country in the subtag: en-us, de-at.
	if i := strings.LastIndexAny(segment, "-_"); i >= 0 && i < len(segment)-1 {
		if code, ok := countryCurrency[segment[i+1:]]; ok {
			return code
		}
	}
	return ""
}
