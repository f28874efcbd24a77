package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crawlkit/shopscraper/internal/models"
)

type PostgresConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
}

// PostgresSink upserts product records into the products table, keyed by
// URL so repeated scrapes of a page converge on the latest record.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, cfg PostgresConfig) (*PostgresSink, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLife
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdle

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Emit(ctx context.Context, product *models.Product) error {
	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	var rawJSON []byte
	if product.StructuredDataRaw != nil {
		rawJSON, err = json.Marshal(product.StructuredDataRaw)
		if err != nil {
			return fmt.Errorf("failed to marshal structured data: %w", err)
		}
	}

	query := `
		INSERT INTO products (url, domain, title, description, price, currency, sku, images, provenance, structured_data_raw, error_message, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (url) DO UPDATE SET
			domain = EXCLUDED.domain,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			sku = EXCLUDED.sku,
			images = EXCLUDED.images,
			provenance = EXCLUDED.provenance,
			structured_data_raw = EXCLUDED.structured_data_raw,
			error_message = EXCLUDED.error_message,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = CURRENT_TIMESTAMP`

	_, err = s.pool.Exec(ctx, query,
		product.URL, product.Domain, product.Title, product.Description,
		product.Price, product.Currency, product.SKU, imagesJSON,
		string(product.Provenance), rawJSON, nullableError(product.Error),
		product.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func nullableError(msg string) *string {
	if msg == "" {
		return nil
	}
	return &msg
}
