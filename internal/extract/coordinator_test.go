package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlkit/shopscraper/internal/models"
)

func TestCoordinatorStructuredDataShortCircuit(t *testing.T) {
	page := ldPage("https://shop.example.com/p/1", `{
		"@type": "Product",
		"name": "Parka",
		"offers": {"price": "29.99", "priceCurrency": "EUR"},
		"image": ["a.jpg", "b.jpg"]
	}`)

	coordinator := NewCoordinator()
	product, err := coordinator.Extract(context.Background(), page)
	require.NoError(t, err)

	require.NotNil(t, product.Price)
	assert.InDelta(t, 29.99, *product.Price, 0.0001)
	assert.Equal(t, "EUR", *product.Currency)
	assert.Equal(t, []string{
		"https://shop.example.com/p/a.jpg",
		"https://shop.example.com/p/b.jpg",
	}, product.Images)
	assert.Equal(t, models.ProvenanceStructuredData, product.Provenance)

	// Critical fields and images satisfied: the script-state and
	// selector readers must never be consulted.
	assert.Zero(t, page.evaluateCalls)
	assert.Zero(t, page.queryCalls)
}

func TestCoordinatorScriptStateBackfill(t *testing.T) {
	page := ldPage("https://shop.example.com/p/2", `{
		"@type": "Product",
		"name": "Only Title"
	}`)
	page.stateJSON = `{"product": {"name": "SHOULD NOT WIN", "price": 15, "currency": "USD", "images": ["s.jpg"]}}`

	coordinator := NewCoordinator()
	product, err := coordinator.Extract(context.Background(), page)
	require.NoError(t, err)

	// Structured data supplied the title and keeps provenance; the
	// script-state stage only fills what is still missing.
	assert.Equal(t, "Only Title", *product.Title)
	require.NotNil(t, product.Price)
	assert.InDelta(t, 15.0, *product.Price, 0.0001)
	assert.Equal(t, "USD", *product.Currency)
	assert.Equal(t, models.ProvenanceStructuredData, product.Provenance)
}

func TestCoordinatorSelectorsProvenance(t *testing.T) {
	page := &fakePage{
		url:     "https://unknown-shop.example.com/item/abc",
		content: "<html><body><h1>  Blue Shirt  </h1></body></html>",
		elements: map[string][]*fakeElement{
			"h1": {{text: "  Blue Shirt  "}},
		},
	}

	coordinator := NewCoordinator()
	product, err := coordinator.Extract(context.Background(), page)
	require.NoError(t, err)

	require.NotNil(t, product.Title)
	assert.Equal(t, "Blue Shirt", *product.Title)
	assert.Equal(t, models.ProvenanceSelectors, product.Provenance)
}

func TestCoordinatorProvenanceNoneWhenNothingFound(t *testing.T) {
	page := &fakePage{
		url:     "https://unknown-shop.example.com/item/abc",
		content: "<html><body></body></html>",
	}

	coordinator := NewCoordinator()
	product, err := coordinator.Extract(context.Background(), page)
	require.NoError(t, err)

	assert.Nil(t, product.Title)
	assert.Nil(t, product.Price)
	assert.Equal(t, models.ProvenanceNone, product.Provenance)
	assert.NotNil(t, product.Images)
	assert.Empty(t, product.Images)
}

func TestCoordinatorImageUpgradeApplied(t *testing.T) {
	page := ldPage("https://shop.example.com/p/3", `{
		"@type": "Product",
		"name": "Shoes",
		"offers": {"price": 10},
		"image": "https://m.media-amazon.com/images/I/81abc._AC_US40_.jpg"
	}`)

	coordinator := NewCoordinator()
	product, err := coordinator.Extract(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://m.media-amazon.com/images/I/81abc.jpg"}, product.Images)
}

func TestCoordinatorFatalErrorPropagates(t *testing.T) {
	page := &fakePage{url: "https://shop.example.com/p/4", gone: true}

	coordinator := NewCoordinator()
	_, err := coordinator.Extract(context.Background(), page)
	require.Error(t, err)
}

func TestMergeIdempotence(t *testing.T) {
	src := Fields{
		Title:  strPtr("A"),
		Price:  floatPtr(5),
		Images: []string{"https://a.com/1.jpg"},
	}

	var once Fields
	once.Merge(src)

	twice := once
	twice.Merge(src)

	assert.Equal(t, once.Title, twice.Title)
	assert.Equal(t, once.Price, twice.Price)
	assert.Equal(t, once.Images, twice.Images)
}

func TestMergeNeverOverwrites(t *testing.T) {
	base := Fields{Title: strPtr("first"), Price: floatPtr(1)}
	base.Merge(Fields{Title: strPtr("second"), Price: floatPtr(2), SKU: strPtr("S")})

	assert.Equal(t, "first", *base.Title)
	assert.InDelta(t, 1.0, *base.Price, 0.0001)
	assert.Equal(t, "S", *base.SKU)
}
