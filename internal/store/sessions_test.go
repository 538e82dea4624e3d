// ABOUTME: Tests for MCP session persistence
// ABOUTME: Covers create/get/delete round-trip and expiry sweep

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSession_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	session := &Session{
		ID:        "sess-1",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := s.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.ID != "sess-1" {
		t.Errorf("ID = %q, want sess-1", got.ID)
	}

	if err := s.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if _, err := s.GetSession(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession after delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteSession_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	err := s.DeleteSession(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSession error = %v, want ErrNotFound", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()
	now := time.Now().UTC()

	stale := &Session{ID: "stale", CreatedAt: now.Add(-48 * time.Hour)}
	fresh := &Session{ID: "fresh", CreatedAt: now}
	if err := s.CreateSession(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateSession(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteExpiredSessions(ctx, now.Add(-24*time.Hour)); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := s.GetSession(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale session survived sweep: %v", err)
	}
	if _, err := s.GetSession(ctx, "fresh"); err != nil {
		t.Errorf("fresh session swept away: %v", err)
	}
}
