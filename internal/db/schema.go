package db

import "time"

// Job status values for ExtractionJob.Status. Transitions are monotonic:
// pending -> processing -> completed | failed.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Webhook subscription status values
const (
	SubscriptionActive = "active"
	SubscriptionFailed = "failed"
)

// PlatformShopify is the only platform this service extracts from today.
const PlatformShopify = "shopify"

// Store represents a merchant's connected e-commerce account. The shop
// domain and access token are written by the OAuth flow (an external
// collaborator); this service only reads them.
type Store struct {
	ID              string
	UserID          string
	Platform        string
	StoreURL        string
	StoreName       string
	ShopDomain      string
	AccessToken     string
	SyncStatus      string
	AutoSyncEnabled bool
	SyncFrequency   string // 'hourly', 'daily' or 'weekly'
	LastSync        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ExtractionJob tracks one run of the sync pipeline for a store. Rows are
// retained indefinitely as history and written only by the extractor that
// created them.
type ExtractionJob struct {
	ID             string
	StoreID        string
	JobKind        string // 'full'
	Status         string
	Progress       int // 0-100, non-decreasing within a job
	TotalItems     int
	ItemsProcessed int
	ErrorMessage   *string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// Product is a normalized catalog product plus the raw upstream payload
type Product struct {
	ID          string
	StoreID     string
	ExternalID  string
	Title       string
	Description string
	Price       string
	Vendor      string
	ProductType string
	Handle      string
	Status      string
	Tags        string
	Images      []byte // JSON
	Variants    []byte // JSON
	Options     []byte // JSON
	RawData     []byte
	RawFormat   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Collection is a normalized product collection
type Collection struct {
	ID          string
	StoreID     string
	ExternalID  string
	Title       string
	Description string
	Handle      string
	ImageURL    string
	RawData     []byte
	RawFormat   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Page is a normalized content page. Pages are keyed by (store, handle)
// because the handle is the stable identity Shopify exposes for content.
type Page struct {
	ID         string
	StoreID    string
	ExternalID string
	PageType   string
	Title      string
	Content    string
	Handle     string
	RawData    []byte
	RawFormat  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Discount is one (price rule, discount code) pair. ExternalID is the
// composite "<price_rule_id>_<discount_code_id>".
type Discount struct {
	ID             string
	StoreID        string
	ExternalID     string
	PriceRuleID    string
	DiscountCodeID string
	Title          string
	Code           string
	ValueType      string
	Value          float64
	UsageCount     int
	StartsAt       time.Time
	EndsAt         *time.Time
	IsActive       bool
	RawData        []byte
	RawFormat      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WebhookSubscription records one registered change-notification topic
type WebhookSubscription struct {
	ID                string
	StoreID           string
	Topic             string
	ExternalWebhookID string
	Address           string
	Status            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// WebhookEvent is one received change notification, stored for later
// processing
type WebhookEvent struct {
	ID           string
	StoreID      string
	Topic        string
	ShopDomain   string
	Payload      []byte
	Processed    bool
	ErrorMessage *string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// ResourceCounts summarizes how many records of each kind are stored for
// one store
type ResourceCounts struct {
	Products    int
	Collections int
	Pages       int
	Discounts   int
}
