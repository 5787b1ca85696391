package auth

import (
	"context"
	"testing"

	"github.com/yanizio/laxmi/internal/identity"
)

func TestWithSessionAndSessionFrom(t *testing.T) {
	sess := &identity.Session{UserID: "u1", Email: "a@b.com"}
	ctx := WithSession(context.Background(), sess)

	got := SessionFrom(ctx)
	if got == nil {
		t.Fatal("expected session in context")
	}
	if got.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "u1")
	}
	if id, ok := UserID(ctx); !ok || id != "u1" {
		t.Errorf("UserID() = %q, %v", id, ok)
	}
}

func TestSessionFromMissing(t *testing.T) {
	if SessionFrom(context.Background()) != nil {
		t.Error("expected nil session")
	}
	if _, ok := UserID(WithSession(context.Background(), nil)); ok {
		t.Error("nil session reported a user")
	}
}

func TestClientID(t *testing.T) {
	if _, ok := ClientID(context.Background()); ok {
		t.Error("expected false for missing client")
	}
	id, ok := ClientID(WithClient(context.Background(), "c1"))
	if !ok || id != "c1" {
		t.Errorf("ClientID = %q, %v", id, ok)
	}
}
