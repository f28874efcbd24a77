package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainOf(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"strips www", "https://www.zalando.de/p/123", "zalando.de"},
		{"lowercases host", "https://Shop.Example.COM/item", "shop.example.com"},
		{"keeps subdomain", "https://m.media.example.com/x", "m.media.example.com"},
		{"drops port", "http://localhost:8080/p", "localhost"},
		{"unparsable", "://nope", ""},
		{"relative path", "just-a-path", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DomainOf(tt.url))
		})
	}
}

func TestNewProduct(t *testing.T) {
	p := NewProduct("https://www.example.com/product/1")

	assert.Equal(t, "example.com", p.Domain)
	assert.Equal(t, ProvenanceNone, p.Provenance)
	assert.NotNil(t, p.Images)
	assert.Empty(t, p.Images)
	assert.Nil(t, p.Title)
	assert.Nil(t, p.Price)
	assert.False(t, p.HasCriticalFields())
}
