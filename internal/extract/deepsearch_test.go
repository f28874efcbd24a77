package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectStringsByKey(t *testing.T) {
	tree := map[string]any{
		"page": map[string]any{
			"gallery": []any{"a.jpg", map[string]any{"url": "b.jpg"}},
			"nested": map[string]any{
				"images": []any{map[string]any{"src": "c.jpg"}},
			},
		},
		"unrelated": "x",
	}

	pred := func(key string) bool {
		return key == "gallery" || key == "images"
	}

	got := collectStringsByKey(tree, pred, 8, 0)
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg", "c.jpg"}, got)
}

func TestCollectStringsByKeyOrderIsStable(t *testing.T) {
	tree := map[string]any{
		"zGallery": map[string]any{"images": []any{"z.jpg"}},
		"aGallery": map[string]any{"images": []any{"a.jpg"}},
		"mGallery": map[string]any{"images": []any{"m.jpg"}},
	}
	pred := func(key string) bool { return key == "images" }

	// Map iteration must not leak into candidate order.
	for i := 0; i < 50; i++ {
		got := collectStringsByKey(tree, pred, 8, 0)
		assert.Equal(t, []string{"a.jpg", "m.jpg", "z.jpg"}, got)
	}
}

func TestWalkByKeyDepthBound(t *testing.T) {
	deep := map[string]any{
		"l1": map[string]any{
			"l2": map[string]any{
				"l3": map[string]any{
					"image": "too-deep.jpg",
				},
			},
		},
	}

	got := collectStringsByKey(deep, func(k string) bool { return k == "image" }, 2, 0)
	assert.Empty(t, got)

	got = collectStringsByKey(deep, func(k string) bool { return k == "image" }, 5, 0)
	assert.Equal(t, []string{"too-deep.jpg"}, got)
}

func TestCollectStringsByKeyLimit(t *testing.T) {
	tree := map[string]any{
		"images": []any{"1.jpg", "2.jpg", "3.jpg", "4.jpg"},
	}

	got := collectStringsByKey(tree, func(k string) bool { return k == "images" }, 4, 2)
	assert.Len(t, got, 2)
}

func TestProfileFor(t *testing.T) {
	assert.Same(t, profiles["zalando.de"], ProfileFor("zalando.de"))
	assert.Same(t, profiles["zalando.de"], ProfileFor("www.zalando.de"))
	assert.Same(t, profiles["amazon.de"], ProfileFor("amazon.de"))

	generic := ProfileFor("никогда.example")
	assert.Equal(t, genericTable, generic.Selectors)
	assert.Nil(t, generic.ImageURLOK)
}

func TestCurrencyFromLocaleSegment(t *testing.T) {
	tests := []struct {
		segment  string
		expected string
	}{
		{"de", "EUR"},
		{"us", "USD"},
		{"en-gb", "GBP"},
		{"en_US", "USD"},
		{"fr-ca", "CAD"},
		{"products", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			assert.Equal(t, tt.expected, currencyFromLocaleSegment(tt.segment))
		})
	}
}

func TestAcceptableImage(t *testing.T) {
	assert.True(t, acceptableImage("https://cdn.example.com/p/shirt.jpg"))
	assert.False(t, acceptableImage("https://cdn.example.com/p/shirt.svg"))
	assert.False(t, acceptableImage("https://cdn.example.com/p/shirt.SVG?v=1"))
	assert.False(t, acceptableImage("https://cdn.example.com/placeholder.jpg"))
	assert.False(t, acceptableImage("https://cdn.example.com/assets/1x1.gif"))
	assert.False(t, acceptableImage("https://cdn.example.com/sprite-sheet.png"))
}

func TestFirstSrcsetCandidate(t *testing.T) {
	assert.Equal(t, "/a.jpg", firstSrcsetCandidate("/a.jpg 640w, /b.jpg 1280w"))
	assert.Equal(t, "/only.jpg", firstSrcsetCandidate("/only.jpg"))
	assert.Equal(t, "", firstSrcsetCandidate("  "))
	assert.False(t, strings.Contains(firstSrcsetCandidate("/x.jpg 2x"), " "))
}
