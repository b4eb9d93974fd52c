package requestctx

import (
	"context"
	"testing"
)

func TestRoleFromContextRoundTrip(t *testing.T) {
	ctx := WithRole(context.Background(), RoleAdmin)
	if got := RoleFromContext(ctx); got != RoleAdmin {
		t.Fatalf("RoleFromContext = %q, want %q", got, RoleAdmin)
	}
	if !IsAdmin(ctx) {
		t.Fatal("expected admin")
	}
}

func TestRoleFromContextDefaultsToViewer(t *testing.T) {
	if got := RoleFromContext(context.Background()); got != RoleViewer {
		t.Fatalf("RoleFromContext = %q, want %q", got, RoleViewer)
	}
	if got := RoleFromContext(WithRole(context.Background(), "")); got != RoleViewer {
		t.Fatalf("blank role = %q, want %q", got, RoleViewer)
	}
}

func TestRoleFromContextNil(t *testing.T) {
	if got := RoleFromContext(nil); got != RoleViewer {
		t.Fatalf("expected viewer for nil context, got %q", got)
	}
}

func TestWithRoleNilContext(t *testing.T) {
	ctx := WithRole(nil, RoleAdmin)
	if ctx == nil {
		t.Fatalf("expected non-nil context")
	}
	if got := RoleFromContext(ctx); got != RoleAdmin {
		t.Fatalf("RoleFromContext = %q, want %q", got, RoleAdmin)
	}
}
