package identity

import (
	"context"
	"testing"
)

func TestFromContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("empty context should carry no user")
	}

	u := User{ID: "user-1", DisplayName: "Asha Rao", Email: "asha@example.com"}
	ctx = WithUser(ctx, u)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected user in context")
	}
	if got != u {
		t.Errorf("FromContext = %+v, want %+v", got, u)
	}
}

func TestFromContext_EmptyID(t *testing.T) {
	ctx := WithUser(context.Background(), User{})
	if _, ok := FromContext(ctx); ok {
		t.Error("a user without an id is not authenticated")
	}
}
