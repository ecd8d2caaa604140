package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-learn-admin/gateway"
)

// Validatable is implemented by models that can reject themselves before
// they are sent to the API.
type Validatable interface {
	Validate() error
}

// Collection is CRUD access to one REST resource, e.g. /questions/tests/.
// Items live at <base><id>/.
type Collection[T any] struct {
	gw   *gateway.Gateway
	base string
}

// NewCollection returns a Collection rooted at base.
func NewCollection[T any](gw *gateway.Gateway, base string) (*Collection[T], error) {
	if gw == nil {
		return nil, errors.New("[resources.NewCollection] gateway is required")
	}
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("[resources.NewCollection] base path is required")
	}
	return &Collection[T]{gw: gw, base: "/" + base + "/"}, nil
}

// Path is the collection path, with leading and trailing slashes.
func (c *Collection[T]) Path() string {
	return c.base
}

func (c *Collection[T]) itemPath(id int64) string {
	return c.base + strconv.FormatInt(id, 10) + "/"
}

// List fetches every item. Both a bare JSON array and a paginated
// {"results": [...]} envelope are accepted.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	var raw json.RawMessage
	if err := c.gw.DoJSON(ctx, gateway.Request{Method: http.MethodGet, Path: c.base}, &raw); err != nil {
		return nil, fmt.Errorf("[Collection.List] %s: %w", c.base, err)
	}
	return decodeList[T](raw)
}

func (c *Collection[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := c.gw.DoJSON(ctx, gateway.Request{Method: http.MethodGet, Path: c.itemPath(id)}, &item); err != nil {
		return nil, fmt.Errorf("[Collection.Get] %s: %w", c.itemPath(id), err)
	}
	return &item, nil
}

// Create validates item and POSTs it, returning the stored copy.
func (c *Collection[T]) Create(ctx context.Context, item T) (*T, error) {
	if err := validate(item); err != nil {
		return nil, err
	}
	var created T
	if err := c.gw.DoJSON(ctx, gateway.Request{Method: http.MethodPost, Path: c.base, Body: item}, &created); err != nil {
		return nil, fmt.Errorf("[Collection.Create] %s: %w", c.base, err)
	}
	return &created, nil
}

// Update replaces the item with a PUT.
func (c *Collection[T]) Update(ctx context.Context, id int64, item T) (*T, error) {
	if err := validate(item); err != nil {
		return nil, err
	}
	var updated T
	if err := c.gw.DoJSON(ctx, gateway.Request{Method: http.MethodPut, Path: c.itemPath(id), Body: item}, &updated); err != nil {
		return nil, fmt.Errorf("[Collection.Update] %s: %w", c.itemPath(id), err)
	}
	return &updated, nil
}

// Patch sends only the given fields. The server validates the result.
func (c *Collection[T]) Patch(ctx context.Context, id int64, fields map[string]any) (*T, error) {
	var patched T
	if err := c.gw.DoJSON(ctx, gateway.Request{Method: http.MethodPatch, Path: c.itemPath(id), Body: fields}, &patched); err != nil {
		return nil, fmt.Errorf("[Collection.Patch] %s: %w", c.itemPath(id), err)
	}
	return &patched, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id int64) error {
	if err := c.gw.DoJSON(ctx, gateway.Request{Method: http.MethodDelete, Path: c.itemPath(id)}, nil); err != nil {
		return fmt.Errorf("[Collection.Delete] %s: %w", c.itemPath(id), err)
	}
	return nil
}

func validate(item any) error {
	if v, ok := item.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	items := []T{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return items, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("[decodeList] %w", err)
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("[decodeList] %w", err)
	}
	if page.Results != nil {
		items = page.Results
	}
	return items, nil
}
