package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/branddash/storesync/internal/db"
	"github.com/branddash/storesync/internal/shopify"
)

// RawFormat tags stored payloads so readers can tell which upstream
// shape a blob carries if the API version ever moves.
const RawFormat = "shopify-rest-v1"

// Extractor runs full catalog syncs. Products, collections and pages
// are mandatory stages: any failure aborts the sync. Discounts are best
// effort and never fail a job on their own.
type Extractor struct {
	db         *db.DB
	newCatalog Factory
	now        func() time.Time
	logger     *slog.Logger
}

// NewExtractor creates an extractor that builds catalog clients through
// factory
func NewExtractor(database *db.DB, factory Factory, logger *slog.Logger) *Extractor {
	return &Extractor{
		db:         database,
		newCatalog: factory,
		now:        time.Now,
		logger:     logger,
	}
}

// ExtractStoreData runs one full sync for a store. A store on another
// platform or without credentials returns ErrNotConnected before any
// job row exists. Every started job reaches a terminal state: completed,
// or failed with the first mandatory-stage error recorded on the row.
func (e *Extractor) ExtractStoreData(ctx context.Context, storeID string) error {
	store, err := e.db.GetStore(ctx, storeID)
	if err != nil {
		return fmt.Errorf("load store %s: %w", storeID, err)
	}
	if store.Platform != db.PlatformShopify || store.ShopDomain == "" || store.AccessToken == "" {
		return ErrNotConnected
	}

	job := &db.ExtractionJob{StoreID: storeID}
	if err := e.db.CreateExtractionJob(ctx, job); err != nil {
		return fmt.Errorf("create extraction job: %w", err)
	}
	if err := e.db.MarkJobStarted(ctx, job.ID, e.now()); err != nil {
		return fmt.Errorf("start extraction job: %w", err)
	}
	if err := e.db.UpdateStoreSyncStatus(ctx, storeID, db.JobStatusProcessing); err != nil {
		return fmt.Errorf("mark store processing: %w", err)
	}

	e.logger.Info("extraction started", "store_id", storeID, "job_id", job.ID)

	catalog := e.newCatalog(store.ShopDomain, store.AccessToken)

	if err := e.run(ctx, catalog, storeID, job.ID); err != nil {
		if dbErr := e.db.MarkJobFailed(ctx, job.ID, e.now(), err.Error()); dbErr != nil {
			e.logger.Error("failed to record job failure", "job_id", job.ID, "error", dbErr)
		}
		if dbErr := e.db.UpdateStoreSyncStatus(ctx, storeID, db.JobStatusFailed); dbErr != nil {
			e.logger.Error("failed to record store failure", "store_id", storeID, "error", dbErr)
		}
		e.logger.Error("extraction failed", "store_id", storeID, "job_id", job.ID, "error", err)
		return err
	}

	if err := e.db.MarkJobCompleted(ctx, job.ID, e.now()); err != nil {
		return fmt.Errorf("complete extraction job: %w", err)
	}
	if err := e.db.MarkStoreSynced(ctx, storeID, e.now()); err != nil {
		return fmt.Errorf("mark store synced: %w", err)
	}

	e.logger.Info("extraction completed", "store_id", storeID, "job_id", job.ID)
	return nil
}

// run executes the sync stages against an already-created job
func (e *Extractor) run(ctx context.Context, catalog Catalog, storeID, jobID string) error {
	// The catalog size is known upfront, so progress can be meaningful
	// from the first batch instead of jumping straight to 100.
	totalItems, err := catalog.ProductCount(ctx)
	if err != nil {
		return fmt.Errorf("product count: %w", err)
	}

	processed := 0

	products := catalog.Products()
	for {
		batch, ok, err := products.Next(ctx)
		if err != nil {
			return fmt.Errorf("fetch products: %w", err)
		}
		if !ok {
			break
		}

		for i := range batch {
			if err := e.db.UpsertProduct(ctx, productRecord(storeID, &batch[i])); err != nil {
				return fmt.Errorf("save product %d: %w", batch[i].ID, err)
			}
			processed++
		}

		if err := e.db.UpdateJobCounts(ctx, jobID, processed, totalItems,
			progressPct(processed, totalItems)); err != nil {
			return fmt.Errorf("update job progress: %w", err)
		}
	}

	collections := catalog.Collections()
	for {
		batch, ok, err := collections.Next(ctx)
		if err != nil {
			return fmt.Errorf("fetch collections: %w", err)
		}
		if !ok {
			break
		}

		for i := range batch {
			if err := e.db.UpsertCollection(ctx, collectionRecord(storeID, &batch[i])); err != nil {
				return fmt.Errorf("save collection %d: %w", batch[i].ID, err)
			}
			processed++
		}
	}

	pages := catalog.Pages()
	for {
		batch, ok, err := pages.Next(ctx)
		if err != nil {
			return fmt.Errorf("fetch pages: %w", err)
		}
		if !ok {
			break
		}

		for i := range batch {
			if err := e.db.UpsertPage(ctx, pageRecord(storeID, &batch[i])); err != nil {
				return fmt.Errorf("save page %d: %w", batch[i].ID, err)
			}
			processed++
		}
	}

	if totalItems < processed {
		totalItems = processed
	}
	if err := e.db.UpdateJobCounts(ctx, jobID, processed, totalItems,
		progressPct(processed, totalItems)); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}

	// Discounts are supplementary: a failure here is logged and the job
	// still completes.
	if err := e.extractDiscounts(ctx, catalog, storeID); err != nil {
		e.logger.Warn("discount extraction failed", "store_id", storeID, "error", err)
	}

	return nil
}

// extractDiscounts pulls price rules and their codes, keeping only the
// rules whose activity window covers the current moment.
func (e *Extractor) extractDiscounts(ctx context.Context, catalog Catalog, storeID string) error {
	rules, err := catalog.PriceRules(ctx)
	if err != nil {
		return fmt.Errorf("fetch price rules: %w", err)
	}

	now := e.now()
	saved := 0

	for i := range rules {
		rule := &rules[i]

		startsAt, endsAt, err := ruleWindow(rule)
		if err != nil {
			return fmt.Errorf("price rule %d: %w", rule.ID, err)
		}
		if startsAt.After(now) || (endsAt != nil && endsAt.Before(now)) {
			continue
		}

		codes, err := catalog.DiscountCodes(ctx, rule.ID)
		if err != nil {
			return fmt.Errorf("fetch discount codes for rule %d: %w", rule.ID, err)
		}

		for j := range codes {
			record, err := discountRecord(storeID, rule, &codes[j], startsAt, endsAt, now)
			if err != nil {
				return fmt.Errorf("discount %d_%d: %w", rule.ID, codes[j].ID, err)
			}
			if err := e.db.UpsertDiscount(ctx, record); err != nil {
				return fmt.Errorf("save discount %s: %w", record.ExternalID, err)
			}
			saved++
		}
	}

	e.logger.Info("discounts extracted", "store_id", storeID, "count", saved)
	return nil
}

// progressPct converts item counts into a 0-99 percentage. 100 is
// reserved for the completed terminal state.
func progressPct(processed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := processed * 100 / total
	if pct > 99 {
		pct = 99
	}
	return pct
}

func rawPayload(raw json.RawMessage, v interface{}) []byte {
	if len(raw) > 0 {
		return raw
	}
	// Items constructed outside the API client carry no wire payload.
	b, _ := json.Marshal(v)
	return b
}

func productRecord(storeID string, p *shopify.Product) *db.Product {
	price := "0"
	if len(p.Variants) > 0 && p.Variants[0].Price != "" {
		price = p.Variants[0].Price
	}

	images, _ := json.Marshal(p.Images)
	variants, _ := json.Marshal(p.Variants)
	options, _ := json.Marshal(p.Options)

	return &db.Product{
		StoreID:     storeID,
		ExternalID:  strconv.FormatInt(p.ID, 10),
		Title:       p.Title,
		Description: p.BodyHTML,
		Price:       price,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Handle:      p.Handle,
		Status:      p.Status,
		Tags:        p.Tags,
		Images:      images,
		Variants:    variants,
		Options:     options,
		RawData:     rawPayload(p.Raw, p),
		RawFormat:   RawFormat,
	}
}

func collectionRecord(storeID string, c *shopify.Collection) *db.Collection {
	imageURL := ""
	if c.Image != nil {
		imageURL = c.Image.Src
	}

	return &db.Collection{
		StoreID:     storeID,
		ExternalID:  strconv.FormatInt(c.ID, 10),
		Title:       c.Title,
		Description: c.BodyHTML,
		Handle:      c.Handle,
		ImageURL:    imageURL,
		RawData:     rawPayload(c.Raw, c),
		RawFormat:   RawFormat,
	}
}

func pageRecord(storeID string, p *shopify.Page) *db.Page {
	return &db.Page{
		StoreID:    storeID,
		ExternalID: strconv.FormatInt(p.ID, 10),
		PageType:   classifyPageType(p.Handle, p.Title),
		Title:      p.Title,
		Content:    p.BodyHTML,
		Handle:     p.Handle,
		RawData:    rawPayload(p.Raw, p),
		RawFormat:  RawFormat,
	}
}

// ruleWindow parses a price rule's activity window
func ruleWindow(rule *shopify.PriceRule) (time.Time, *time.Time, error) {
	startsAt, err := time.Parse(time.RFC3339, rule.StartsAt)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("parse starts_at %q: %w", rule.StartsAt, err)
	}

	var endsAt *time.Time
	if rule.EndsAt != nil && *rule.EndsAt != "" {
		t, err := time.Parse(time.RFC3339, *rule.EndsAt)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("parse ends_at %q: %w", *rule.EndsAt, err)
		}
		endsAt = &t
	}

	return startsAt, endsAt, nil
}

func discountRecord(storeID string, rule *shopify.PriceRule, code *shopify.DiscountCode,
	startsAt time.Time, endsAt *time.Time, now time.Time) (*db.Discount, error) {

	value, err := strconv.ParseFloat(rule.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("parse value %q: %w", rule.Value, err)
	}

	raw, err := json.Marshal(map[string]json.RawMessage{
		"price_rule":    rawPayload(rule.Raw, rule),
		"discount_code": rawPayload(code.Raw, code),
	})
	if err != nil {
		return nil, err
	}

	isActive := !startsAt.After(now) && (endsAt == nil || !endsAt.Before(now))

	return &db.Discount{
		StoreID:        storeID,
		ExternalID:     fmt.Sprintf("%d_%d", rule.ID, code.ID),
		PriceRuleID:    strconv.FormatInt(rule.ID, 10),
		DiscountCodeID: strconv.FormatInt(code.ID, 10),
		Title:          rule.Title,
		Code:           code.Code,
		ValueType:      rule.ValueType,
		Value:          value,
		UsageCount:     code.UsageCount,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		IsActive:       isActive,
		RawData:        raw,
		RawFormat:      RawFormat,
	}, nil
}
