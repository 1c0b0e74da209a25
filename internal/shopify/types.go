package shopify

import "encoding/json"

// REST resource shapes for the Shopify Admin API. Only the fields the
// extractor reads are declared; the full payload is kept verbatim in the
// Raw field so downstream storage survives upstream schema drift.

// Shop is the merchant's shop record
type Shop struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Domain string `json:"domain"`
	Plan   string `json:"plan_name"`
}

// Product is one catalog product
type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	BodyHTML    string          `json:"body_html"`
	Vendor      string          `json:"vendor"`
	ProductType string          `json:"product_type"`
	Handle      string          `json:"handle"`
	Status      string          `json:"status"`
	Tags        string          `json:"tags"`
	Variants    []Variant       `json:"variants"`
	Images      []Image         `json:"images"`
	Options     []ProductOption `json:"options"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	PublishedAt string          `json:"published_at"`

	Raw json.RawMessage `json:"-"`
}

func (p *Product) setRaw(raw json.RawMessage) { p.Raw = raw }

// Variant is one purchasable variation of a product
type Variant struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	CompareAtPrice    string `json:"compare_at_price"`
	SKU               string `json:"sku"`
	Position          int    `json:"position"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// Image is one product image
type Image struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

// ProductOption is one product option axis (size, color)
type ProductOption struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Values   []string `json:"values"`
}

// Collection is a custom or smart collection. Both kinds share this
// shape on the wire.
type Collection struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	BodyHTML string           `json:"body_html"`
	Handle   string           `json:"handle"`
	Image    *CollectionImage `json:"image"`

	Raw json.RawMessage `json:"-"`
}

func (c *Collection) setRaw(raw json.RawMessage) { c.Raw = raw }

// CollectionImage is the optional cover image of a collection
type CollectionImage struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Page is one content page
type Page struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	BodyHTML string `json:"body_html"`
	Handle   string `json:"handle"`

	Raw json.RawMessage `json:"-"`
}

func (p *Page) setRaw(raw json.RawMessage) { p.Raw = raw }

// PriceRule is the discount definition a code belongs to
type PriceRule struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	ValueType  string  `json:"value_type"`
	Value      string  `json:"value"`
	StartsAt   string  `json:"starts_at"`
	EndsAt     *string `json:"ends_at"`
	UsageLimit *int    `json:"usage_limit"`

	Raw json.RawMessage `json:"-"`
}

func (r *PriceRule) setRaw(raw json.RawMessage) { r.Raw = raw }

// DiscountCode is one redeemable code under a price rule
type DiscountCode struct {
	ID          int64  `json:"id"`
	PriceRuleID int64  `json:"price_rule_id"`
	Code        string `json:"code"`
	UsageCount  int    `json:"usage_count"`

	Raw json.RawMessage `json:"-"`
}

func (d *DiscountCode) setRaw(raw json.RawMessage) { d.Raw = raw }

// Webhook is one registered change-notification subscription
type Webhook struct {
	ID      int64  `json:"id"`
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format"`
}
