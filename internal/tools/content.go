// ABOUTME: Content pack provides CRUD tools over the content store: posts and pages.
// ABOUTME: Each handler validates its arguments before touching the store.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/folio-labs/folio-gateway/internal/store"
)

// ContentPack creates the content tools: list, get, create, update, delete.
func ContentPack(s store.ContentStore) []*Tool {
	h := &contentHandlers{store: s}
	return []*Tool{
		{
			Descriptor: Descriptor{
				Name:        "content_list",
				Description: "List posts and pages, optionally filtered by type and status",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"type":{"type":"string","enum":["post","page"]},"status":{"type":"string","enum":["draft","published"]},"limit":{"type":"integer"}}}`),
				Annotations: map[string]any{"readOnlyHint": true},
			},
			Handler: h.List,
		},
		{
			Descriptor: Descriptor{
				Name:        "content_get",
				Description: "Fetch a single post or page by id",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}`),
				Annotations: map[string]any{"readOnlyHint": true},
			},
			Handler: h.Get,
		},
		{
			Descriptor: Descriptor{
				Name:        "content_create",
				Description: "Create a post or page",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"type":{"type":"string","enum":["post","page"]},"title":{"type":"string"},"body":{"type":"string"},"status":{"type":"string","enum":["draft","published"]}},"required":["type","title"]}`),
			},
			Handler: h.Create,
		},
		{
			Descriptor: Descriptor{
				Name:        "content_update",
				Description: "Update the title, body, or status of a post or page",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"},"title":{"type":"string"},"body":{"type":"string"},"status":{"type":"string","enum":["draft","published"]}},"required":["id"]}`),
			},
			Handler: h.Update,
		},
		{
			Descriptor: Descriptor{
				Name:        "content_delete",
				Description: "Delete a post or page",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}`),
				Annotations: map[string]any{"destructiveHint": true},
			},
			Handler: h.Delete,
		},
	}
}

type contentHandlers struct {
	store store.ContentStore
}

// contentResult is the JSON shape returned for a single content object.
type contentResult struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toResult(obj *store.ContentObject) contentResult {
	return contentResult{
		ID:        obj.ID,
		Type:      obj.Type,
		Title:     obj.Title,
		Body:      obj.Body,
		Status:    obj.Status,
		CreatedAt: obj.CreatedAt.Format(time.RFC3339),
		UpdatedAt: obj.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *contentHandlers) List(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var params struct {
		Type   string `json:"type"`
		Status string `json:"status"`
		Limit  int    `json:"limit"`
	}
	if err := unmarshalArgs(args, &params); err != nil {
		return nil, err
	}
	if params.Type != "" && params.Type != "post" && params.Type != "page" {
		return nil, fmt.Errorf("invalid type %q", params.Type)
	}
	if params.Status != "" && params.Status != "draft" && params.Status != "published" {
		return nil, fmt.Errorf("invalid status %q", params.Status)
	}

	objects, err := h.store.ListContent(ctx, params.Type, params.Status, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}

	results := make([]contentResult, 0, len(objects))
	for _, obj := range objects {
		results = append(results, toResult(obj))
	}
	return json.Marshal(map[string]any{"items": results})
}

func (h *contentHandlers) Get(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := unmarshalArgs(args, &params); err != nil {
		return nil, err
	}
	if params.ID == "" {
		return nil, errors.New("id is required")
	}

	obj, err := h.store.GetContent(ctx, params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("content %s not found", params.ID)
		}
		return nil, fmt.Errorf("fetching content: %w", err)
	}
	return json.Marshal(toResult(obj))
}

func (h *contentHandlers) Create(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var params struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Body   string `json:"body"`
		Status string `json:"status"`
	}
	if err := unmarshalArgs(args, &params); err != nil {
		return nil, err
	}
	if params.Type != "post" && params.Type != "page" {
		return nil, fmt.Errorf("type must be post or page, got %q", params.Type)
	}
	if params.Title == "" {
		return nil, errors.New("title is required")
	}
	if params.Status == "" {
		params.Status = "draft"
	}
	if params.Status != "draft" && params.Status != "published" {
		return nil, fmt.Errorf("invalid status %q", params.Status)
	}

	now := time.Now().UTC()
	obj := &store.ContentObject{
		ID:        uuid.NewString(),
		Type:      params.Type,
		Title:     params.Title,
		Body:      params.Body,
		Status:    params.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateContent(ctx, obj); err != nil {
		return nil, fmt.Errorf("creating content: %w", err)
	}
	return json.Marshal(toResult(obj))
}

func (h *contentHandlers) Update(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var params struct {
		ID     string  `json:"id"`
		Title  *string `json:"title"`
		Body   *string `json:"body"`
		Status *string `json:"status"`
	}
	if err := unmarshalArgs(args, &params); err != nil {
		return nil, err
	}
	if params.ID == "" {
		return nil, errors.New("id is required")
	}

	obj, err := h.store.GetContent(ctx, params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("content %s not found", params.ID)
		}
		return nil, fmt.Errorf("fetching content: %w", err)
	}

	if params.Title != nil {
		if *params.Title == "" {
			return nil, errors.New("title cannot be empty")
		}
		obj.Title = *params.Title
	}
	if params.Body != nil {
		obj.Body = *params.Body
	}
	if params.Status != nil {
		if *params.Status != "draft" && *params.Status != "published" {
			return nil, fmt.Errorf("invalid status %q", *params.Status)
		}
		obj.Status = *params.Status
	}
	obj.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateContent(ctx, obj); err != nil {
		return nil, fmt.Errorf("updating content: %w", err)
	}
	return json.Marshal(toResult(obj))
}

func (h *contentHandlers) Delete(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := unmarshalArgs(args, &params); err != nil {
		return nil, err
	}
	if params.ID == "" {
		return nil, errors.New("id is required")
	}

	if err := h.store.DeleteContent(ctx, params.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("content %s not found", params.ID)
		}
		return nil, fmt.Errorf("deleting content: %w", err)
	}
	return json.Marshal(map[string]any{"deleted": params.ID})
}

// unmarshalArgs decodes tool arguments, treating an empty body as an empty
// object.
func unmarshalArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
