package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hms/hms/pkg/pagination"
)

// Resource is a typed CRUD client for one backend collection. W is the wire
// representation; domain clients convert it to the canonical model.
type Resource[W any] struct {
	client       *Client
	name         string
	updateMethod string
}

// NewResource binds a collection such as "patients" to c. updateMethod is
// http.MethodPatch or http.MethodPut.
func NewResource[W any](c *Client, name, updateMethod string) *Resource[W] {
	if updateMethod != http.MethodPut {
		updateMethod = http.MethodPatch
	}
	return &Resource[W]{
		client:       c,
		name:         strings.Trim(name, "/"),
		updateMethod: updateMethod,
	}
}

// Name returns the collection path segment.
func (r *Resource[W]) Name() string {
	return r.name
}

// Client returns the underlying HTTP client.
func (r *Resource[W]) Client() *Client {
	return r.client
}

func (r *Resource[W]) collectionPath() string {
	return r.name + "/"
}

func (r *Resource[W]) memberPath(id string) string {
	return r.name + "/" + id + "/"
}

// List fetches the collection. Bare arrays and {results: [...]} pages both
// yield a plain slice; any other body yields an empty one.
func (r *Resource[W]) List(ctx context.Context) ([]W, error) {
	return r.ListAt(ctx, r.collectionPath())
}

// ListAt lists from a custom route relative to the base URL, such as
// "medicines/low_stock/".
func (r *Resource[W]) ListAt(ctx context.Context, path string) ([]W, error) {
	body, err := r.client.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.name, err)
	}
	items, dropped := pagination.DecodeList[W](body)
	if dropped > 0 {
		r.client.logger.Warn().
			Str("resource", r.name).
			Int("dropped", dropped).
			Msg("skipped malformed list elements")
	}
	return items, nil
}

// Get fetches one member. The id is validated locally first and any non-2xx
// response is reported as ErrNotFound.
func (r *Resource[W]) Get(ctx context.Context, id string) (W, error) {
	var out W
	id, err := ValidateID(id)
	if err != nil {
		return out, err
	}
	if err := r.client.DoJSON(ctx, http.MethodGet, r.memberPath(id), nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && !errors.Is(err, ErrNotFound) {
			return out, fmt.Errorf("get %s %s: %w: %w", r.name, id, ErrNotFound, err)
		}
		return out, fmt.Errorf("get %s %s: %w", r.name, id, err)
	}
	return out, nil
}

// Create posts payload and returns the created entity.
func (r *Resource[W]) Create(ctx context.Context, payload any) (W, error) {
	var out W
	if err := r.client.DoJSON(ctx, http.MethodPost, r.collectionPath(), payload, &out); err != nil {
		return out, fmt.Errorf("create %s: %w", r.name, err)
	}
	return out, nil
}

// Update sends patch with the collection's update verb. Only the keys
// present in patch are sent.
func (r *Resource[W]) Update(ctx context.Context, id string, patch any) (W, error) {
	var out W
	id, err := ValidateID(id)
	if err != nil {
		return out, err
	}
	if err := r.client.DoJSON(ctx, r.updateMethod, r.memberPath(id), patch, &out); err != nil {
		return out, fmt.Errorf("update %s %s: %w", r.name, id, err)
	}
	return out, nil
}

// Remove deletes one member.
func (r *Resource[W]) Remove(ctx context.Context, id string) error {
	id, err := ValidateID(id)
	if err != nil {
		return err
	}
	if _, err := r.client.Do(ctx, http.MethodDelete, r.memberPath(id), nil); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.name, id, err)
	}
	return nil
}
