package shared

import "context"

type ownerContextKey struct{}

// ContextWithOwner stores the tenant owner id in context.
func ContextWithOwner(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, ownerID)
}

// OwnerFromContext extracts the tenant owner id from context. Zero means no
// owner was resolved for the request.
func OwnerFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(ownerContextKey{}).(int64)
	return id
}
