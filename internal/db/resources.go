package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Upserts for extracted catalog resources. Every upsert is keyed by the
// natural external identifier so a re-sync updates the existing row
// instead of creating a duplicate. The raw upstream payload is stored
// verbatim next to the normalized fields to tolerate schema drift.

// UpsertProduct inserts or updates a product keyed by (store_id, external_id)
func (db *DB) UpsertProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO extracted_products (id, store_id, external_id, title,
			description, price, vendor, product_type, handle, status, tags,
			images, variants, options, raw_data, raw_format, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (store_id, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			vendor = EXCLUDED.vendor,
			product_type = EXCLUDED.product_type,
			handle = EXCLUDED.handle,
			status = EXCLUDED.status,
			tags = EXCLUDED.tags,
			images = EXCLUDED.images,
			variants = EXCLUDED.variants,
			options = EXCLUDED.options,
			raw_data = EXCLUDED.raw_data,
			raw_format = EXCLUDED.raw_format,
			updated_at = EXCLUDED.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		p.ID, p.StoreID, p.ExternalID, p.Title,
		p.Description, p.Price, p.Vendor, p.ProductType, p.Handle, p.Status, p.Tags,
		string(p.Images), string(p.Variants), string(p.Options),
		string(p.RawData), p.RawFormat, now, now,
	)
	return err
}

// UpsertCollection inserts or updates a collection keyed by (store_id, external_id)
func (db *DB) UpsertCollection(ctx context.Context, c *Collection) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO extracted_collections (id, store_id, external_id, title,
			description, handle, image_url, raw_data, raw_format, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (store_id, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			handle = EXCLUDED.handle,
			image_url = EXCLUDED.image_url,
			raw_data = EXCLUDED.raw_data,
			raw_format = EXCLUDED.raw_format,
			updated_at = EXCLUDED.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		c.ID, c.StoreID, c.ExternalID, c.Title,
		c.Description, c.Handle, c.ImageURL,
		string(c.RawData), c.RawFormat, now, now,
	)
	return err
}

// UpsertPage inserts or updates a page keyed by (store_id, handle)
func (db *DB) UpsertPage(ctx context.Context, p *Page) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO extracted_pages (id, store_id, external_id, page_type, title,
			content, handle, raw_data, raw_format, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (store_id, handle) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			page_type = EXCLUDED.page_type,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			raw_data = EXCLUDED.raw_data,
			raw_format = EXCLUDED.raw_format,
			updated_at = EXCLUDED.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		p.ID, p.StoreID, p.ExternalID, p.PageType, p.Title,
		p.Content, p.Handle,
		string(p.RawData), p.RawFormat, now, now,
	)
	return err
}

// UpsertDiscount inserts or updates a discount keyed by (store_id, external_id).
// On conflict only the volatile fields are refreshed; the descriptive
// fields (code, value, window) come from the rule and do not change.
func (db *DB) UpsertDiscount(ctx context.Context, d *Discount) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO extracted_discounts (id, store_id, external_id, price_rule_id,
			discount_code_id, title, code, value_type, value, usage_count,
			starts_at, ends_at, is_active, raw_data, raw_format, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (store_id, external_id) DO UPDATE SET
			usage_count = EXCLUDED.usage_count,
			is_active = EXCLUDED.is_active,
			raw_data = EXCLUDED.raw_data,
			raw_format = EXCLUDED.raw_format,
			updated_at = EXCLUDED.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		d.ID, d.StoreID, d.ExternalID, d.PriceRuleID,
		d.DiscountCodeID, d.Title, d.Code, d.ValueType, d.Value, d.UsageCount,
		d.StartsAt, d.EndsAt, d.IsActive,
		string(d.RawData), d.RawFormat, now, now,
	)
	return err
}

// GetProduct retrieves one product by its external identifier
func (db *DB) GetProduct(ctx context.Context, storeID, externalID string) (*Product, error) {
	query := `
		SELECT id, store_id, external_id, title, description, price, vendor,
			product_type, handle, status, tags, images, variants, options,
			raw_data, raw_format, created_at, updated_at
		FROM extracted_products
		WHERE store_id = ? AND external_id = ?
	`

	p := &Product{}
	err := db.QueryRowContext(ctx, query, storeID, externalID).Scan(
		&p.ID, &p.StoreID, &p.ExternalID, &p.Title, &p.Description, &p.Price,
		&p.Vendor, &p.ProductType, &p.Handle, &p.Status, &p.Tags,
		&p.Images, &p.Variants, &p.Options,
		&p.RawData, &p.RawFormat, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p, nil
}

// GetDiscount retrieves one discount by its composite external identifier
func (db *DB) GetDiscount(ctx context.Context, storeID, externalID string) (*Discount, error) {
	query := `
		SELECT id, store_id, external_id, price_rule_id, discount_code_id,
			title, code, value_type, value, usage_count, starts_at, ends_at,
			is_active, raw_data, raw_format, created_at, updated_at
		FROM extracted_discounts
		WHERE store_id = ? AND external_id = ?
	`

	d := &Discount{}
	err := db.QueryRowContext(ctx, query, storeID, externalID).Scan(
		&d.ID, &d.StoreID, &d.ExternalID, &d.PriceRuleID, &d.DiscountCodeID,
		&d.Title, &d.Code, &d.ValueType, &d.Value, &d.UsageCount,
		&d.StartsAt, &d.EndsAt, &d.IsActive,
		&d.RawData, &d.RawFormat, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return d, nil
}

// GetPageByHandle retrieves one page by its handle
func (db *DB) GetPageByHandle(ctx context.Context, storeID, handle string) (*Page, error) {
	query := `
		SELECT id, store_id, external_id, page_type, title, content, handle,
			raw_data, raw_format, created_at, updated_at
		FROM extracted_pages
		WHERE store_id = ? AND handle = ?
	`

	p := &Page{}
	err := db.QueryRowContext(ctx, query, storeID, handle).Scan(
		&p.ID, &p.StoreID, &p.ExternalID, &p.PageType, &p.Title, &p.Content,
		&p.Handle, &p.RawData, &p.RawFormat, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p, nil
}
