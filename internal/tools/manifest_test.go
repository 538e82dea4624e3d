// ABOUTME: Tests for TOML tool manifest loading and overlay
// ABOUTME: Covers description overrides, annotation merging, and unknown entries

package tools

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
[pack]
name = "content"

[[tool]]
name = "content_create"
description = "Publish a new article"

[tool.annotations]
title = "Create article"
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Pack.Name != "content" {
		t.Errorf("pack name = %q, want content", m.Pack.Name)
	}
	if len(m.Tools) != 1 {
		t.Fatalf("got %d tools, want 1", len(m.Tools))
	}
	if m.Tools[0].Description != "Publish a new article" {
		t.Errorf("description = %q", m.Tools[0].Description)
	}
	if m.Tools[0].Annotations["title"] != "Create article" {
		t.Errorf("annotations = %v", m.Tools[0].Annotations)
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	badSyntax := writeManifest(t, `[[tool]`)
	if _, err := LoadManifest(badSyntax); err == nil {
		t.Error("expected error for invalid TOML")
	}

	unnamed := writeManifest(t, "[[tool]]\ndescription = \"no name\"\n")
	if _, err := LoadManifest(unnamed); err == nil {
		t.Error("expected error for entry without name")
	}
}

func TestApplyManifest(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	m := &Manifest{
		Tools: []ManifestEntry{{
			Name:        "echo",
			Description: "overridden",
			Annotations: map[string]any{"readOnlyHint": true},
		}},
	}
	if err := r.ApplyManifest(m); err != nil {
		t.Fatalf("ApplyManifest failed: %v", err)
	}

	descriptors := r.List()
	if descriptors[0].Description != "overridden" {
		t.Errorf("description = %q, want overridden", descriptors[0].Description)
	}
	if descriptors[0].Annotations["readOnlyHint"] != true {
		t.Errorf("annotations = %v", descriptors[0].Annotations)
	}
}

func TestApplyManifest_UnknownTool(t *testing.T) {
	r := NewRegistry(nil)
	m := &Manifest{Tools: []ManifestEntry{{Name: "ghost"}}}
	if err := r.ApplyManifest(m); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}
