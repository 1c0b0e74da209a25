package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const storeColumns = `id, user_id, platform, store_url, store_name, shop_domain,
	access_token, sync_status, auto_sync_enabled, sync_frequency, last_sync,
	created_at, updated_at`

// CreateStore creates a new store record
func (db *DB) CreateStore(ctx context.Context, store *Store) error {
	if store.ID == "" {
		store.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	store.CreatedAt = now
	store.UpdatedAt = now
	if store.SyncStatus == "" {
		store.SyncStatus = JobStatusPending
	}
	if store.SyncFrequency == "" {
		store.SyncFrequency = "daily"
	}

	query := `
		INSERT INTO stores (id, user_id, platform, store_url, store_name, shop_domain,
			access_token, sync_status, auto_sync_enabled, sync_frequency, last_sync,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		store.ID,
		store.UserID,
		store.Platform,
		store.StoreURL,
		store.StoreName,
		store.ShopDomain,
		store.AccessToken,
		store.SyncStatus,
		store.AutoSyncEnabled,
		store.SyncFrequency,
		store.LastSync,
		store.CreatedAt,
		store.UpdatedAt,
	)
	return err
}

func scanStore(row *sql.Row) (*Store, error) {
	store := &Store{}
	err := row.Scan(
		&store.ID,
		&store.UserID,
		&store.Platform,
		&store.StoreURL,
		&store.StoreName,
		&store.ShopDomain,
		&store.AccessToken,
		&store.SyncStatus,
		&store.AutoSyncEnabled,
		&store.SyncFrequency,
		&store.LastSync,
		&store.CreatedAt,
		&store.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return store, nil
}

// GetStore retrieves a store by ID
func (db *DB) GetStore(ctx context.Context, id string) (*Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = ?`
	return scanStore(db.QueryRowContext(ctx, query, id))
}

// GetStoreByDomain retrieves a store by its shop domain. Used by the
// webhook intake to attribute incoming events.
func (db *DB) GetStoreByDomain(ctx context.Context, shopDomain string) (*Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE shop_domain = ?`
	return scanStore(db.QueryRowContext(ctx, query, shopDomain))
}

// ListStoresDueForSync returns stores with auto sync enabled whose last
// sync is older than the cutoff for their configured frequency (or that
// never synced), as of now.
func (db *DB) ListStoresDueForSync(ctx context.Context, now time.Time) ([]Store, error) {
	query := `
		SELECT ` + storeColumns + `
		FROM stores
		WHERE auto_sync_enabled = TRUE
		  AND sync_status NOT IN ('processing')
		ORDER BY created_at
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []Store
	for rows.Next() {
		var s Store
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.Platform,
			&s.StoreURL,
			&s.StoreName,
			&s.ShopDomain,
			&s.AccessToken,
			&s.SyncStatus,
			&s.AutoSyncEnabled,
			&s.SyncFrequency,
			&s.LastSync,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if s.LastSync == nil || now.Sub(*s.LastSync) >= syncInterval(s.SyncFrequency) {
			due = append(due, s)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if due == nil {
		due = []Store{}
	}

	return due, nil
}

func syncInterval(frequency string) time.Duration {
	switch frequency {
	case "hourly":
		return time.Hour
	case "weekly":
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// UpdateStoreSyncStatus sets the store's sync status
func (db *DB) UpdateStoreSyncStatus(ctx context.Context, id, status string) error {
	query := `UPDATE stores SET sync_status = ?, updated_at = ? WHERE id = ?`

	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkStoreSynced records a successful sync completion
func (db *DB) MarkStoreSynced(ctx context.Context, id string, when time.Time) error {
	query := `
		UPDATE stores
		SET sync_status = ?, last_sync = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query, JobStatusCompleted, when, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// StoreResourceCounts returns the number of stored records per resource
// kind for one store
func (db *DB) StoreResourceCounts(ctx context.Context, storeID string) (ResourceCounts, error) {
	var counts ResourceCounts

	queries := []struct {
		table string
		dst   *int
	}{
		{"extracted_products", &counts.Products},
		{"extracted_collections", &counts.Collections},
		{"extracted_pages", &counts.Pages},
		{"extracted_discounts", &counts.Discounts},
	}

	for _, q := range queries {
		query := `SELECT COUNT(*) FROM ` + q.table + ` WHERE store_id = ?`
		if err := db.QueryRowContext(ctx, query, storeID).Scan(q.dst); err != nil {
			return ResourceCounts{}, err
		}
	}

	return counts, nil
}
