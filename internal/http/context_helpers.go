package httpx

import (
	"context"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

// identityKey is the context key RequireRoles stores the admitted identity under.
type identityKey struct{}

// SetIdentityInContext returns a child context carrying id. A nil id returns ctx unchanged.
func SetIdentityInContext(ctx context.Context, id *domainauth.Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity admitted by RequireRoles.
func IdentityFromContext(ctx context.Context) (*domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*domainauth.Identity)
	return id, ok && id != nil
}
