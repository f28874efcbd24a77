package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/crawlkit/shopscraper/internal/models"
)

// FileSink keeps the full result set in one JSON file, keyed by URL so a
// re-scrape of the same page replaces the old record. The file is
// rewritten through a temp file to survive crashes mid-write.
type FileSink struct {
	mu       sync.Mutex
	products map[string]*models.Product
	filename string
}

func NewFileSink(filename string) (*FileSink, error) {
	fs := &FileSink{
		products: make(map[string]*models.Product),
		filename: filename,
	}

	if err := fs.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}

	return fs, nil
}

func (fs *FileSink) Emit(_ context.Context, product *models.Product) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if product.URL == "" {
		return fmt.Errorf("product URL is required")
	}

	fs.products[product.URL] = product
	return fs.save()
}

func (fs *FileSink) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.products)
}

func (fs *FileSink) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.save()
}

func (fs *FileSink) save() error {
	data, err := json.MarshalIndent(fs.products, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := fs.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, fs.filename)
}

func (fs *FileSink) load() error {
	data, err := os.ReadFile(fs.filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &fs.products)
}
