package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAPIVersion is the Admin API version requests are pinned to.
	DefaultAPIVersion = "2024-01"

	// DefaultPageSize is the per-page limit requested from list
	// endpoints. 250 is the platform maximum.
	DefaultPageSize = 250

	defaultTimeout = 30 * time.Second
)

// APIError is a non-2xx response from the Admin API
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: status %d: %s", e.Status, e.Body)
}

// Client talks to one shop's Admin API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	apiVersion string
	pageSize   int
	httpClient *http.Client
	retry      RetryPolicy
	logger     *slog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL overrides the shop URL. Used by tests to point the client
// at a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient substitutes the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy overrides the retry behavior
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithAPIVersion pins a different Admin API version
func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

// WithPageSize sets the per-page limit for list endpoints
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = n }
}

// WithLogger sets the logger used for retry warnings
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for one shop, identified by its
// *.myshopify.com domain and an Admin API access token.
func NewClient(shopDomain, accessToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:    "https://" + shopDomain,
		token:      accessToken,
		apiVersion: DefaultAPIVersion,
		pageSize:   DefaultPageSize,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retry:      DefaultRetryPolicy(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// endpoint builds a full Admin API URL from a path like "/products.json".
func (c *Client) endpoint(path string) string {
	return c.baseURL + "/admin/api/" + c.apiVersion + path
}

// do performs one API call, retrying rate limits and server errors per
// the retry policy. A fresh request is built for every attempt. Transport
// errors are returned as-is and never retried. The response of the final
// attempt is returned even if its status is still retryable; callers
// decide what a non-2xx status means.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Shopify-Access-Token", c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= c.retry.MaxRetries {
			return resp, nil
		}

		delay := c.retry.backoff(resp, attempt+1)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		c.logger.Warn("retrying api request",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// getJSON fetches url and decodes the body into v. Non-2xx responses
// become an *APIError whose Body holds a truncated response excerpt.
// The response headers are returned for pagination.
func (c *Client) getJSON(ctx context.Context, url string, v interface{}) (http.Header, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return nil, fmt.Errorf("shopify: decode %s: %w", url, err)
	}
	return resp.Header, nil
}

func newAPIError(resp *http.Response) *APIError {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &APIError{
		Status: resp.StatusCode,
		Body:   string(bytes.TrimSpace(excerpt)),
	}
}

// Shop fetches the shop record, which doubles as a credential check
func (c *Client) Shop(ctx context.Context) (*Shop, error) {
	var envelope struct {
		Shop Shop `json:"shop"`
	}
	if _, err := c.getJSON(ctx, c.endpoint("/shop.json"), &envelope); err != nil {
		return nil, err
	}
	return &envelope.Shop, nil
}

// ProductCount returns the total number of products in the catalog
func (c *Client) ProductCount(ctx context.Context) (int, error) {
	var envelope struct {
		Count int `json:"count"`
	}
	if _, err := c.getJSON(ctx, c.endpoint("/products/count.json"), &envelope); err != nil {
		return 0, err
	}
	return envelope.Count, nil
}

// Products returns an iterator over the full product catalog
func (c *Client) Products() *ProductPages {
	return &ProductPages{pager: newPager[Product](c, "products",
		fmt.Sprintf("/products.json?limit=%d", c.pageSize))}
}

// Collections returns an iterator over all collections: the manually
// curated ones first, then the rule-driven ones.
func (c *Client) Collections() *CollectionPages {
	return &CollectionPages{
		pagers: []*pager[Collection]{
			newPager[Collection](c, "custom_collections",
				fmt.Sprintf("/custom_collections.json?limit=%d", c.pageSize)),
			newPager[Collection](c, "smart_collections",
				fmt.Sprintf("/smart_collections.json?limit=%d", c.pageSize)),
		},
	}
}

// Pages returns an iterator over the shop's content pages
func (c *Client) Pages() *PagePages {
	return &PagePages{pager: newPager[Page](c, "pages",
		fmt.Sprintf("/pages.json?limit=%d", c.pageSize))}
}

// PriceRules fetches every price rule in the shop
func (c *Client) PriceRules(ctx context.Context) ([]PriceRule, error) {
	p := newPager[PriceRule](c, "price_rules",
		fmt.Sprintf("/price_rules.json?limit=%d", c.pageSize))
	return collectAll(ctx, p)
}

// DiscountCodes fetches all codes defined under one price rule
func (c *Client) DiscountCodes(ctx context.Context, priceRuleID int64) ([]DiscountCode, error) {
	p := newPager[DiscountCode](c, "discount_codes",
		fmt.Sprintf("/price_rules/%d/discount_codes.json", priceRuleID))
	return collectAll(ctx, p)
}

// CreateWebhook registers a change-notification subscription
func (c *Client) CreateWebhook(ctx context.Context, topic, address string) (*Webhook, error) {
	payload := map[string]interface{}{
		"webhook": map[string]string{
			"topic":   topic,
			"address": address,
			"format":  "json",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, c.endpoint("/webhooks.json"), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp)
	}

	var envelope struct {
		Webhook Webhook `json:"webhook"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("shopify: decode webhook: %w", err)
	}
	return &envelope.Webhook, nil
}

// Webhooks lists the shop's registered subscriptions
func (c *Client) Webhooks(ctx context.Context) ([]Webhook, error) {
	var envelope struct {
		Webhooks []Webhook `json:"webhooks"`
	}
	if _, err := c.getJSON(ctx, c.endpoint("/webhooks.json"), &envelope); err != nil {
		return nil, err
	}
	return envelope.Webhooks, nil
}

// DeleteWebhook removes one subscription by its remote id
func (c *Client) DeleteWebhook(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, c.endpoint(fmt.Sprintf("/webhooks/%d.json", id)), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
