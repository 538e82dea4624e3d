// ABOUTME: Tests for identity context propagation
// ABOUTME: Covers WithIdentity/FromContext/MustFromContext behavior

package auth

import (
	"context"
	"testing"
)

func TestWithIdentityAndFromContext(t *testing.T) {
	id := &Identity{UserID: "user-1", ClientID: "client-1", Scope: "content:read"}
	ctx := WithIdentity(context.Background(), id)

	got := FromContext(ctx)
	if got == nil {
		t.Fatal("FromContext returned nil")
	}
	if got.UserID != "user-1" || got.ClientID != "client-1" {
		t.Errorf("got %+v, want user-1/client-1", got)
	}
}

func TestFromContext_Empty(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext on empty context = %+v, want nil", got)
	}
}

func TestMustFromContext_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustFromContext did not panic on empty context")
		}
	}()
	MustFromContext(context.Background())
}
