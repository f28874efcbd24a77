package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// Amazon renditions encode the size in a path token between dots,
	// e.g. 81x._AC_US40_.jpg -> 81x.jpg.
	amazonSizeToken = regexp.MustCompile(`\._[A-Za-z0-9_,]+_\.`)

	// Shopify renditions append _<w>x<h> or a named size before the
	// extension, e.g. shirt_300x300.jpg, shirt_large.jpg.
	shopifySizeSuffix = regexp.MustCompile(`_(?:\d+x\d*|x\d+|pico|icon|thumb|small|compact|medium|large|grande|master)(\.[a-zA-Z]+)`)

	// WordPress-style -<w>x<h> suffix before the extension.
	dimensionSuffix = regexp.MustCompile(`-\d+x\d+(\.[a-zA-Z]+)`)

	sizeQueryParams = []string{"w", "h", "width", "height", "size", "imwidth", "imheight", "sw", "sh"}
)

// LargestImages rewrites each image URL to request the largest available
// rendition by stripping known size-indicator fragments. Size-in-path CDNs
// (Amazon, Shopify) get their path tokens stripped; everything else only
// loses width/height query parameters. The upgrade is best effort: when
// stripping produces an invalid URL the original is kept.
func LargestImages(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		out = append(out, largestImage(u))
	}
	return out
}

func largestImage(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.ToLower(u.Hostname())
	upgraded := raw

	switch {
	case strings.Contains(host, "media-amazon.com") || strings.Contains(host, "images-amazon.com"):
		upgraded = amazonSizeToken.ReplaceAllString(raw, ".")
	case strings.Contains(host, "cdn.shopify.com"):
		upgraded = shopifySizeSuffix.ReplaceAllString(raw, "$1")
		upgraded = stripSizeParams(upgraded)
	default:
		upgraded = dimensionSuffix.ReplaceAllString(raw, "$1")
		upgraded = stripSizeParams(upgraded)
	}

	if upgraded == "" {
		return raw
	}
	if check, err := url.Parse(upgraded); err != nil || check.Host == "" {
		return raw
	}
	return upgraded
}

func stripSizeParams(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range sizeQueryParams {
		if q.Has(p) {
			q.Del(p)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
