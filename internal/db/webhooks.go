package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UpsertWebhookSubscription inserts or updates a subscription keyed by
// (store_id, topic). Re-registering a topic replaces the remote webhook
// id and status of the existing row.
func (db *DB) UpsertWebhookSubscription(ctx context.Context, s *WebhookSubscription) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO webhook_subscriptions (id, store_id, topic,
			external_webhook_id, address, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (store_id, topic) DO UPDATE SET
			external_webhook_id = EXCLUDED.external_webhook_id,
			address = EXCLUDED.address,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		s.ID, s.StoreID, s.Topic,
		s.ExternalWebhookID, s.Address, s.Status, now, now,
	)
	return err
}

// ListWebhookSubscriptions returns all subscriptions for a store ordered
// by topic
func (db *DB) ListWebhookSubscriptions(ctx context.Context, storeID string) ([]*WebhookSubscription, error) {
	query := `
		SELECT id, store_id, topic, external_webhook_id, address, status,
			created_at, updated_at
		FROM webhook_subscriptions
		WHERE store_id = ?
		ORDER BY topic
	`

	rows, err := db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*WebhookSubscription{}
	for rows.Next() {
		s := &WebhookSubscription{}
		err := rows.Scan(
			&s.ID, &s.StoreID, &s.Topic, &s.ExternalWebhookID, &s.Address,
			&s.Status, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// InsertWebhookEvent stores one received change notification for later
// processing
func (db *DB) InsertWebhookEvent(ctx context.Context, e *WebhookEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO webhook_events (id, store_id, topic, shop_domain, payload,
			processed, error_message, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		e.ID, e.StoreID, e.Topic, e.ShopDomain, string(e.Payload),
		e.Processed, e.ErrorMessage, e.CreatedAt, e.ProcessedAt,
	)
	return err
}

// ListUnprocessedWebhookEvents returns stored notifications that have not
// been handled yet, oldest first
func (db *DB) ListUnprocessedWebhookEvents(ctx context.Context, limit int) ([]*WebhookEvent, error) {
	query := `
		SELECT id, store_id, topic, shop_domain, payload, processed,
			error_message, created_at, processed_at
		FROM webhook_events
		WHERE processed = FALSE
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*WebhookEvent{}
	for rows.Next() {
		e := &WebhookEvent{}
		err := rows.Scan(
			&e.ID, &e.StoreID, &e.Topic, &e.ShopDomain, &e.Payload,
			&e.Processed, &e.ErrorMessage, &e.CreatedAt, &e.ProcessedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// MarkWebhookEventProcessed flags a stored notification as handled
func (db *DB) MarkWebhookEventProcessed(ctx context.Context, id string, errMsg *string) error {
	query := `
		UPDATE webhook_events
		SET processed = TRUE, error_message = ?, processed_at = ?
		WHERE id = ?
	`

	res, err := db.ExecContext(ctx, query, errMsg, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
