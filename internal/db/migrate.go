package db

import (
	"context"
	"fmt"
)

// schemaStatements holds the full schema. Types are restricted to the
// common subset understood by both SQLite and Postgres.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		platform TEXT NOT NULL,
		store_url TEXT NOT NULL DEFAULT '',
		store_name TEXT NOT NULL DEFAULT '',
		shop_domain TEXT NOT NULL DEFAULT '',
		access_token TEXT NOT NULL DEFAULT '',
		sync_status TEXT NOT NULL DEFAULT 'pending',
		auto_sync_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		sync_frequency TEXT NOT NULL DEFAULT 'daily',
		last_sync TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS extraction_jobs (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL REFERENCES stores(id),
		job_kind TEXT NOT NULL DEFAULT 'full',
		status TEXT NOT NULL DEFAULT 'pending',
		progress INTEGER NOT NULL DEFAULT 0,
		total_items INTEGER NOT NULL DEFAULT 0,
		items_processed INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_jobs_store
		ON extraction_jobs(store_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS extracted_products (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL REFERENCES stores(id),
		external_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '',
		vendor TEXT NOT NULL DEFAULT '',
		product_type TEXT NOT NULL DEFAULT '',
		handle TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		images TEXT NOT NULL DEFAULT 'null',
		variants TEXT NOT NULL DEFAULT 'null',
		options TEXT NOT NULL DEFAULT 'null',
		raw_data TEXT NOT NULL DEFAULT 'null',
		raw_format TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (store_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS extracted_collections (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL REFERENCES stores(id),
		external_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		handle TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		raw_data TEXT NOT NULL DEFAULT 'null',
		raw_format TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (store_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS extracted_pages (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL REFERENCES stores(id),
		external_id TEXT NOT NULL DEFAULT '',
		page_type TEXT NOT NULL DEFAULT 'custom',
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		handle TEXT NOT NULL,
		raw_data TEXT NOT NULL DEFAULT 'null',
		raw_format TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (store_id, handle)
	)`,
	`CREATE TABLE IF NOT EXISTS extracted_discounts (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL REFERENCES stores(id),
		external_id TEXT NOT NULL,
		price_rule_id TEXT NOT NULL,
		discount_code_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL DEFAULT '',
		value_type TEXT NOT NULL DEFAULT '',
		value REAL NOT NULL DEFAULT 0,
		usage_count INTEGER NOT NULL DEFAULT 0,
		starts_at TIMESTAMP NOT NULL,
		ends_at TIMESTAMP,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		raw_data TEXT NOT NULL DEFAULT 'null',
		raw_format TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (store_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS webhook_subscriptions (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL REFERENCES stores(id),
		topic TEXT NOT NULL,
		external_webhook_id TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (store_id, topic)
	)`,
	`CREATE TABLE IF NOT EXISTS webhook_events (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL DEFAULT '',
		topic TEXT NOT NULL,
		shop_domain TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL DEFAULT 'null',
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		error_message TEXT,
		created_at TIMESTAMP NOT NULL,
		processed_at TIMESTAMP
	)`,
}

// InitSchema creates all tables if they do not exist yet. It is safe to
// call on every startup.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
