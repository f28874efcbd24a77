package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ldPage(url string, blocks ...string) *fakePage {
	html := "<html><head>"
	for _, b := range blocks {
		html += `<script type="application/ld+json">` + b + `</script>`
	}
	html += "</head><body></body></html>"
	return &fakePage{url: url, content: html}
}

func TestStructuredDataReader(t *testing.T) {
	reader := NewStructuredDataReader()

	t.Run("product block with offers array and images", func(t *testing.T) {
		page := ldPage("https://shop.example.com/p/1", `{
			"@context": "https://schema.org",
			"@type": "Product",
			"name": "Blue Shirt",
			"description": "A very blue shirt",
			"sku": "SHIRT-1",
			"offers": [{"price": "29.99", "priceCurrency": "EUR"}],
			"image": ["a.jpg", "b.jpg"]
		}`)

		fields, raw, err := reader.Read(page)
		require.NoError(t, err)
		require.NotNil(t, raw)

		require.NotNil(t, fields.Title)
		assert.Equal(t, "Blue Shirt", *fields.Title)
		require.NotNil(t, fields.Description)
		assert.Equal(t, "A very blue shirt", *fields.Description)
		require.NotNil(t, fields.SKU)
		assert.Equal(t, "SHIRT-1", *fields.SKU)
		require.NotNil(t, fields.Price)
		assert.InDelta(t, 29.99, *fields.Price, 0.0001)
		require.NotNil(t, fields.Currency)
		assert.Equal(t, "EUR", *fields.Currency)
		assert.Equal(t, []string{
			"https://shop.example.com/p/a.jpg",
			"https://shop.example.com/p/b.jpg",
		}, fields.Images)
	})

	t.Run("offers as single object", func(t *testing.T) {
		page := ldPage("https://shop.example.com/p/2", `{
			"@type": "Product",
			"name": "Hat",
			"offers": {"price": 12.5, "priceCurrency": "usd"}
		}`)

		fields, _, err := reader.Read(page)
		require.NoError(t, err)
		require.NotNil(t, fields.Price)
		assert.InDelta(t, 12.5, *fields.Price, 0.0001)
		assert.Equal(t, "USD", *fields.Currency)
	})

	t.Run("type array including Product", func(t *testing.T) {
		page := ldPage("https://shop.example.com/p/3", `{
			"@type": ["Thing", "Product"],
			"name": "Socks"
		}`)

		fields, raw, err := reader.Read(page)
		require.NoError(t, err)
		require.NotNil(t, raw)
		assert.Equal(t, "Socks", *fields.Title)
	})

	t.Run("product nested in graph", func(t *testing.T) {
		page := ldPage("https://shop.example.com/p/4", `{
			"@context": "https://schema.org",
			"@graph": [
				{"@type": "WebPage", "name": "ignored"},
				{"@type": "Product", "name": "Graph Product", "productID": "998877"}
			]
		}`)

		fields, _, err := reader.Read(page)
		require.NoError(t, err)
		require.NotNil(t, fields.Title)
		assert.Equal(t, "Graph Product", *fields.Title)
		require.NotNil(t, fields.SKU)
		assert.Equal(t, "998877", *fields.SKU)
	})

	t.Run("malformed block does not abort discovery", func(t *testing.T) {
		page := ldPage("https://shop.example.com/p/5",
			`{"@type": "Product", "name": `, // truncated JSON
			`{"@type": "Product", "name": "Survivor"}`,
		)

		fields, raw, err := reader.Read(page)
		require.NoError(t, err)
		require.NotNil(t, raw)
		assert.Equal(t, "Survivor", *fields.Title)
	})

	t.Run("image object with url", func(t *testing.T) {
		page := ldPage("https://shop.example.com/p/6", `{
			"@type": "Product",
			"name": "Mug",
			"image": {"url": "/media/mug.jpg"}
		}`)

		fields, _, err := reader.Read(page)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://shop.example.com/media/mug.jpg"}, fields.Images)
	})

	t.Run("svg and placeholder images filtered", func(t *testing.T) {
		page := ldPage("https://shop.example.com/p/7", `{
			"@type": "Product",
			"name": "Lamp",
			"image": ["real.jpg", "vector.svg", "https://cdn.example.com/placeholder.png"]
		}`)

		fields, _, err := reader.Read(page)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://shop.example.com/p/real.jpg"}, fields.Images)
	})

	t.Run("no product block is absence not error", func(t *testing.T) {
		page := ldPage("https://shop.example.com/p/8", `{"@type": "Article", "name": "News"}`)

		fields, raw, err := reader.Read(page)
		require.NoError(t, err)
		assert.Nil(t, raw)
		assert.True(t, fields.IsEmpty())
	})

	t.Run("fatal page error propagates", func(t *testing.T) {
		page := &fakePage{url: "https://shop.example.com/p/9", gone: true}

		_, _, err := reader.Read(page)
		require.Error(t, err)
	})
}
