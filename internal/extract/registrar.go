package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/branddash/storesync/internal/db"
)

// Topics are the change notifications every connected store subscribes
// to
var Topics = []string{
	"products/create",
	"products/update",
	"products/delete",
	"collections/create",
	"collections/update",
	"collections/delete",
	"orders/create",
	"orders/updated",
	"customers/create",
	"customers/update",
}

// Registrar registers webhook subscriptions for connected stores
type Registrar struct {
	db         *db.DB
	newCatalog Factory
	baseURL    string
	logger     *slog.Logger
}

// NewRegistrar creates a registrar. baseURL is this service's public
// root; topic paths are appended to it.
func NewRegistrar(database *db.DB, factory Factory, baseURL string, logger *slog.Logger) *Registrar {
	return &Registrar{
		db:         database,
		newCatalog: factory,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// SetupWebhooks registers every topic for a store. Each topic is
// attempted independently: one rejection does not stop the rest, and the
// outcome of every attempt is persisted as a subscription row. Only a
// missing store or missing credentials produce an error.
func (r *Registrar) SetupWebhooks(ctx context.Context, storeID string) error {
	store, err := r.db.GetStore(ctx, storeID)
	if err != nil {
		return fmt.Errorf("load store %s: %w", storeID, err)
	}
	if store.Platform != db.PlatformShopify || store.ShopDomain == "" || store.AccessToken == "" {
		return ErrNotConnected
	}

	catalog := r.newCatalog(store.ShopDomain, store.AccessToken)

	for _, topic := range Topics {
		address := r.baseURL + "/api/shopify/webhooks/" + topic

		sub := &db.WebhookSubscription{
			StoreID: storeID,
			Topic:   topic,
			Address: address,
		}

		hook, err := catalog.CreateWebhook(ctx, topic, address)
		if err != nil {
			r.logger.Warn("webhook registration failed",
				"store_id", storeID, "topic", topic, "error", err)
			sub.Status = db.SubscriptionFailed
		} else {
			sub.ExternalWebhookID = strconv.FormatInt(hook.ID, 10)
			sub.Status = db.SubscriptionActive
		}

		if err := r.db.UpsertWebhookSubscription(ctx, sub); err != nil {
			return fmt.Errorf("save subscription %s: %w", topic, err)
		}
	}

	return nil
}
