package requestctx

import "context"

// Viewer roles a request can carry.
const (
	RoleViewer = "viewer"
	RoleAdmin  = "admin"
)

// roleContextKey is the context key for the viewer role.
type roleContextKey struct{}

// WithRole stores the viewer role in context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext returns the viewer role stored in context, RoleViewer when
// none was stored.
func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return RoleViewer
	}
	if value, _ := ctx.Value(roleContextKey{}).(string); value != "" {
		return value
	}
	return RoleViewer
}

// IsAdmin reports whether the request carries the admin role.
func IsAdmin(ctx context.Context) bool {
	return RoleFromContext(ctx) == RoleAdmin
}
