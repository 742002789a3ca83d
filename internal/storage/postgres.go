// Package storage persists finished product records to Postgres when a
// database is configured. The batch CLI works without it.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdplab/amazon-pdp-scraper/internal/config"
	"github.com/pdplab/amazon-pdp-scraper/internal/models"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// EnsureSchema creates the product_records table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS product_records (
			asin              TEXT PRIMARY KEY,
			brand             TEXT NOT NULL DEFAULT '',
			title             TEXT NOT NULL DEFAULT '',
			bullets           JSONB NOT NULL DEFAULT '[]',
			description       TEXT NOT NULL DEFAULT '',
			mrp               TEXT NOT NULL DEFAULT '',
			selling_price     TEXT NOT NULL DEFAULT '',
			deal_name         TEXT NOT NULL DEFAULT '',
			ebc_content       BOOLEAN NOT NULL DEFAULT FALSE,
			has_video         BOOLEAN NOT NULL DEFAULT FALSE,
			technical_details JSONB NOT NULL DEFAULT '{}',
			whats_in_the_box  TEXT NOT NULL DEFAULT '',
			review_count      TEXT NOT NULL DEFAULT '',
			average_rating    TEXT NOT NULL DEFAULT '',
			questions_count   TEXT NOT NULL DEFAULT '',
			best_sellers_rank TEXT NOT NULL DEFAULT '',
			seller            TEXT NOT NULL DEFAULT '',
			variation_data    JSONB NOT NULL DEFAULT '{}',
			images            JSONB NOT NULL DEFAULT '[]',
			image_count       INT NOT NULL DEFAULT 0,
			status            TEXT NOT NULL,
			error_message     TEXT NOT NULL DEFAULT '',
			scraped_at        TIMESTAMPTZ NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveRecord upserts the record by ASIN; a retry's fresh record replaces the
// stale row wholesale.
func (db *DB) SaveRecord(ctx context.Context, rec *models.ProductRecord) error {
	bullets, err := json.Marshal(rec.Bullets)
	if err != nil {
		return fmt.Errorf("failed to marshal bullets: %w", err)
	}
	tech, err := json.Marshal(rec.TechnicalDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal technical details: %w", err)
	}
	variations, err := json.Marshal(rec.VariationData)
	if err != nil {
		return fmt.Errorf("failed to marshal variation data: %w", err)
	}
	images, err := json.Marshal(rec.Images)
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	query := `
		INSERT INTO product_records (
			asin, brand, title, bullets, description,
			mrp, selling_price, deal_name, ebc_content, has_video,
			technical_details, whats_in_the_box,
			review_count, average_rating, questions_count, best_sellers_rank,
			seller, variation_data, images, image_count,
			status, error_message, scraped_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, NOW()
		)
		ON CONFLICT (asin) DO UPDATE SET
			brand = EXCLUDED.brand,
			title = EXCLUDED.title,
			bullets = EXCLUDED.bullets,
			description = EXCLUDED.description,
			mrp = EXCLUDED.mrp,
			selling_price = EXCLUDED.selling_price,
			deal_name = EXCLUDED.deal_name,
			ebc_content = EXCLUDED.ebc_content,
			has_video = EXCLUDED.has_video,
			technical_details = EXCLUDED.technical_details,
			whats_in_the_box = EXCLUDED.whats_in_the_box,
			review_count = EXCLUDED.review_count,
			average_rating = EXCLUDED.average_rating,
			questions_count = EXCLUDED.questions_count,
			best_sellers_rank = EXCLUDED.best_sellers_rank,
			seller = EXCLUDED.seller,
			variation_data = EXCLUDED.variation_data,
			images = EXCLUDED.images,
			image_count = EXCLUDED.image_count,
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = NOW()`

	_, err = db.pool.Exec(ctx, query,
		rec.ASIN, rec.Brand, rec.Title, bullets, rec.Description,
		rec.MRP, rec.SellingPrice, rec.DealName, rec.EBCContent, rec.HasVideo,
		tech, rec.WhatsInTheBox,
		rec.ReviewCount, rec.AverageRating, rec.QuestionsCount, rec.BestSellersRank,
		rec.Seller, variations, images, rec.ImageCount,
		string(rec.Status), rec.ErrorMessage, rec.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}
