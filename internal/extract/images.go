package extract

import (
	"strings"

	"github.com/crawlkit/shopscraper/internal/normalize"
)

// Filename fragments that mark placeholder, tracking and icon assets.
// These are rejected no matter which reader produced the URL.
var placeholderFragments = []string{
	"placeholder",
	"transparent",
	"spacer",
	"blank.",
	"1x1",
	"pixel.",
	"no-image",
	"noimage",
	"missing-image",
	"loading.",
	"sprite",
	"favicon",
	"icon-",
	"/icons/",
	"logo.",
	"/logo",
	"data:image",
}

// cleanImages applies the universal image pipeline: resolve every candidate
// against the page URL, drop SVGs and known placeholder assets, and
// deduplicate preserving first-seen order.
func cleanImages(candidates []string, baseURL string) []string {
	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, candidate := range candidates {
		resolved := normalize.ResolveURL(candidate, baseURL)
		if resolved == "" {
			continue
		}
		if !acceptableImage(resolved) {
			continue
		}
		if _, ok := seen[resolved]; ok {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
	}
	return out
}

func acceptableImage(u string) bool {
	lower := strings.ToLower(u)
	path := lower
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if strings.HasSuffix(path, ".svg") {
		return false
	}
	for _, fragment := range placeholderFragments {
		if strings.Contains(lower, fragment) {
			return false
		}
	}
	return true
}

// firstSrcsetCandidate picks the first URL out of a comma-separated
// srcset value ("url1 640w, url2 1280w").
func firstSrcsetCandidate(srcset string) string {
	first := srcset
	if i := strings.Index(srcset, ","); i >= 0 {
		first = srcset[:i]
	}
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
