// Package resources wraps the tenant REST collections in typed CRUD calls.
// It holds no business rules; every method maps to exactly one endpoint.
package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-erp-client/tenantclient"
)

// Doer dispatches a request against a tenant origin. *tenantclient.Client
// satisfies it.
type Doer interface {
	Do(ctx context.Context, req tenantclient.Request) (*tenantclient.Response, error)
}

// Page is a paginated list body. Bare JSON arrays are returned as a single
// page whose Count is the array length.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// Collection is one REST collection rooted at path, e.g. /invoice/.
type Collection[T any] struct {
	doer Doer
	path string
}

func NewCollection[T any](doer Doer, path string) *Collection[T] {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &Collection[T]{doer: doer, path: path}
}

func (c *Collection[T]) Path() string {
	return c.path
}

func (c *Collection[T]) List(ctx context.Context, query url.Values) (*Page[T], error) {
	resp, err := c.doer.Do(ctx, tenantclient.Request{Method: http.MethodGet, Path: c.path, Query: query})
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) > 0 && body[0] == '[' {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("[resources List] decoding %s: %w", c.path, err)
		}
		return &Page[T]{Count: len(items), Results: items}, nil
	}

	var page Page[T]
	if err := resp.Decode(&page); err != nil {
		return nil, fmt.Errorf("[resources List] decoding %s: %w", c.path, err)
	}
	return &page, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	return c.one(ctx, http.MethodGet, c.item(id), nil)
}

func (c *Collection[T]) Create(ctx context.Context, v any) (*T, error) {
	return c.one(ctx, http.MethodPost, c.path, v)
}

// Update replaces the resource (PUT).
func (c *Collection[T]) Update(ctx context.Context, id string, v any) (*T, error) {
	return c.one(ctx, http.MethodPut, c.item(id), v)
}

// Patch sends a partial update; fields is typically a map.
func (c *Collection[T]) Patch(ctx context.Context, id string, fields any) (*T, error) {
	return c.one(ctx, http.MethodPatch, c.item(id), fields)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.doer.Do(ctx, tenantclient.Request{Method: http.MethodDelete, Path: c.item(id)})
	return err
}

// Action posts to a detail route such as /inventory/delivery-order/{id}/validate/.
func (c *Collection[T]) Action(ctx context.Context, id, action string, body any) (*T, error) {
	return c.one(ctx, http.MethodPost, c.item(id)+url.PathEscape(action)+"/", body)
}

func (c *Collection[T]) item(id string) string {
	return c.path + url.PathEscape(id) + "/"
}

func (c *Collection[T]) one(ctx context.Context, method, path string, body any) (*T, error) {
	resp, err := c.doer.Do(ctx, tenantclient.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	var out T
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("[resources %s] decoding %s: %w", method, path, err)
	}
	return &out, nil
}
