package extract

import (
	"context"

	"github.com/branddash/storesync/internal/shopify"
)

// ProductPager yields the product catalog in batches. Pagers are
// single-use; once ok is false they stay exhausted.
type ProductPager interface {
	Next(ctx context.Context) ([]shopify.Product, bool, error)
}

// CollectionPager yields collections in batches
type CollectionPager interface {
	Next(ctx context.Context) ([]shopify.Collection, bool, error)
}

// PagePager yields content pages in batches
type PagePager interface {
	Next(ctx context.Context) ([]shopify.Page, bool, error)
}

// Catalog is the remote platform surface the extractor consumes. The
// production implementation wraps the Admin API client; tests substitute
// an in-memory fake.
type Catalog interface {
	ProductCount(ctx context.Context) (int, error)
	Products() ProductPager
	Collections() CollectionPager
	Pages() PagePager
	PriceRules(ctx context.Context) ([]shopify.PriceRule, error)
	DiscountCodes(ctx context.Context, priceRuleID int64) ([]shopify.DiscountCode, error)
	CreateWebhook(ctx context.Context, topic, address string) (*shopify.Webhook, error)
}

// Factory builds a Catalog for one store's credentials
type Factory func(shopDomain, accessToken string) Catalog

// shopifyCatalog adapts *shopify.Client to the Catalog interface. The
// indirection exists because the client's iterator methods return
// concrete types.
type shopifyCatalog struct {
	c *shopify.Client
}

func (s *shopifyCatalog) ProductCount(ctx context.Context) (int, error) {
	return s.c.ProductCount(ctx)
}

func (s *shopifyCatalog) Products() ProductPager {
	return s.c.Products()
}

func (s *shopifyCatalog) Collections() CollectionPager {
	return s.c.Collections()
}

func (s *shopifyCatalog) Pages() PagePager {
	return s.c.Pages()
}

func (s *shopifyCatalog) PriceRules(ctx context.Context) ([]shopify.PriceRule, error) {
	return s.c.PriceRules(ctx)
}

func (s *shopifyCatalog) DiscountCodes(ctx context.Context, priceRuleID int64) ([]shopify.DiscountCode, error) {
	return s.c.DiscountCodes(ctx, priceRuleID)
}

func (s *shopifyCatalog) CreateWebhook(ctx context.Context, topic, address string) (*shopify.Webhook, error) {
	return s.c.CreateWebhook(ctx, topic, address)
}

// NewShopifyFactory returns a Factory backed by the Admin API client.
// The options apply to every client it builds.
func NewShopifyFactory(opts ...shopify.Option) Factory {
	return func(shopDomain, accessToken string) Catalog {
		return &shopifyCatalog{c: shopify.NewClient(shopDomain, accessToken, opts...)}
	}
}
