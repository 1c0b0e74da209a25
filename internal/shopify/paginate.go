package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
)

// Cursor pagination. List endpoints return at most one page per request
// and point at the next one through the Link response header:
//
//	Link: <https://shop.myshopify.com/admin/api/...&page_info=xyz>; rel="next"
//
// Page cursors are opaque and expire; iterators therefore fetch lazily
// and cannot be restarted.

var linkRe = regexp.MustCompile(`<([^>]+)>;\s*rel="([^"]+)"`)

// nextPageURL extracts the rel="next" target from a Link header, or ""
// when this was the last page.
func nextPageURL(h http.Header) string {
	for _, link := range h.Values("Link") {
		for _, m := range linkRe.FindAllStringSubmatch(link, -1) {
			if m[2] == "next" {
				return m[1]
			}
		}
	}
	return ""
}

// rawCarrier lets decoded items keep their verbatim wire payload
type rawCarrier interface {
	setRaw(json.RawMessage)
}

// pager walks one list endpoint page by page. It is single-use: once
// exhausted (or failed) it stays that way.
type pager[T any] struct {
	c    *Client
	key  string // envelope key holding the item array
	next string // absolute URL of the next page, "" when exhausted
}

func newPager[T any](c *Client, key, path string) *pager[T] {
	return &pager[T]{c: c, key: key, next: c.endpoint(path)}
}

// Next fetches the next page. It returns ok=false once all pages have
// been consumed. On error the pager is exhausted; partial results are
// never returned.
func (p *pager[T]) Next(ctx context.Context) ([]T, bool, error) {
	if p.next == "" {
		return nil, false, nil
	}

	url := p.next
	p.next = ""

	var envelope map[string]json.RawMessage
	header, err := p.c.getJSON(ctx, url, &envelope)
	if err != nil {
		return nil, false, err
	}

	var raws []json.RawMessage
	if body, ok := envelope[p.key]; ok {
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, false, fmt.Errorf("shopify: decode %s page: %w", p.key, err)
		}
	}

	items := make([]T, len(raws))
	for i, raw := range raws {
		if err := json.Unmarshal(raw, &items[i]); err != nil {
			return nil, false, fmt.Errorf("shopify: decode %s item: %w", p.key, err)
		}
		if rc, ok := any(&items[i]).(rawCarrier); ok {
			rc.setRaw(raw)
		}
	}

	p.next = nextPageURL(header)
	return items, true, nil
}

// collectAll drains a pager into one slice
func collectAll[T any](ctx context.Context, p *pager[T]) ([]T, error) {
	var all []T
	for {
		items, ok, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, items...)
	}
}

// ProductPages iterates the product catalog in batches
type ProductPages struct {
	pager *pager[Product]
}

// Next returns the next batch of products, ok=false after the last one
func (p *ProductPages) Next(ctx context.Context) ([]Product, bool, error) {
	return p.pager.Next(ctx)
}

// CollectionPages iterates custom collections, then smart collections
type CollectionPages struct {
	pagers []*pager[Collection]
}

// Next returns the next batch of collections, crossing from custom into
// smart collections transparently.
func (p *CollectionPages) Next(ctx context.Context) ([]Collection, bool, error) {
	for len(p.pagers) > 0 {
		items, ok, err := p.pagers[0].Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return items, true, nil
		}
		p.pagers = p.pagers[1:]
	}
	return nil, false, nil
}

// PagePages iterates the shop's content pages in batches
type PagePages struct {
	pager *pager[Page]
}

// Next returns the next batch of pages, ok=false after the last one
func (p *PagePages) Next(ctx context.Context) ([]Page, bool, error) {
	return p.pager.Next(ctx)
}
