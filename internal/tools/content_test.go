// ABOUTME: Tests for the content tool pack against a real SQLite store
// ABOUTME: Exercises create, get, list filters, update, and delete handlers

package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/folio-labs/folio-gateway/internal/store"
)

func newContentRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	r := NewRegistry(nil)
	if err := r.RegisterAll(ContentPack(s)); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	return r
}

func callTool(t *testing.T, r *Registry, name, args string) map[string]any {
	t.Helper()
	raw, err := r.Call(context.Background(), name, json.RawMessage(args))
	if err != nil {
		t.Fatalf("Call(%s) failed: %v", name, err)
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("Call(%s) returned invalid JSON: %v", name, err)
	}
	return result
}

func TestContentPack_CreateAndGet(t *testing.T) {
	r := newContentRegistry(t)

	created := callTool(t, r, "content_create", `{"type":"post","title":"Hello","body":"First post."}`)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("content_create returned no id")
	}
	if created["status"] != "draft" {
		t.Errorf("default status = %v, want draft", created["status"])
	}

	got := callTool(t, r, "content_get", `{"id":"`+id+`"}`)
	if got["title"] != "Hello" {
		t.Errorf("content_get title = %v, want Hello", got["title"])
	}
}

func TestContentPack_CreateValidation(t *testing.T) {
	r := newContentRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args string
	}{
		{"missing type", `{"title":"x"}`},
		{"bad type", `{"type":"widget","title":"x"}`},
		{"missing title", `{"type":"post"}`},
		{"bad status", `{"type":"post","title":"x","status":"archived"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Call(ctx, "content_create", json.RawMessage(tt.args)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestContentPack_ListFilters(t *testing.T) {
	r := newContentRegistry(t)

	callTool(t, r, "content_create", `{"type":"post","title":"Draft Post"}`)
	callTool(t, r, "content_create", `{"type":"post","title":"Live Post","status":"published"}`)
	callTool(t, r, "content_create", `{"type":"page","title":"About","status":"published"}`)

	all := callTool(t, r, "content_list", `{}`)
	if items := all["items"].([]any); len(items) != 3 {
		t.Errorf("unfiltered list = %d items, want 3", len(items))
	}

	published := callTool(t, r, "content_list", `{"status":"published"}`)
	if items := published["items"].([]any); len(items) != 2 {
		t.Errorf("published list = %d items, want 2", len(items))
	}

	pages := callTool(t, r, "content_list", `{"type":"page","status":"published"}`)
	items := pages["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("page list = %d items, want 1", len(items))
	}
	if title := items[0].(map[string]any)["title"]; title != "About" {
		t.Errorf("page title = %v, want About", title)
	}
}

func TestContentPack_Update(t *testing.T) {
	r := newContentRegistry(t)

	created := callTool(t, r, "content_create", `{"type":"post","title":"Before"}`)
	id := created["id"].(string)

	updated := callTool(t, r, "content_update", `{"id":"`+id+`","title":"After","status":"published"}`)
	if updated["title"] != "After" || updated["status"] != "published" {
		t.Errorf("update result = %v", updated)
	}

	// Fields not in the arguments are untouched.
	got := callTool(t, r, "content_get", `{"id":"`+id+`"}`)
	if got["title"] != "After" {
		t.Errorf("title after update = %v, want After", got["title"])
	}
}

func TestContentPack_Delete(t *testing.T) {
	r := newContentRegistry(t)
	ctx := context.Background()

	created := callTool(t, r, "content_create", `{"type":"page","title":"Temp"}`)
	id := created["id"].(string)

	callTool(t, r, "content_delete", `{"id":"`+id+`"}`)

	_, err := r.Call(ctx, "content_get", json.RawMessage(`{"id":"`+id+`"}`))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("get after delete = %v, want not found", err)
	}

	if _, err := r.Call(ctx, "content_delete", json.RawMessage(`{"id":"`+id+`"}`)); err == nil {
		t.Error("second delete should fail")
	}
}
