// Package identity defines the authenticated principal passed explicitly to every core operation.
package identity

import "context"

// Role tags a principal as a property owner or a tenant.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleTenant Role = "tenant"
)

// IsValid checks if a role is recognized.
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleTenant
}

// Principal is an authenticated user with a stable ID and a role.
type Principal struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// IsOwner reports whether the principal acts as a property owner.
func (p Principal) IsOwner() bool { return p.Role == RoleOwner }

// IsTenant reports whether the principal acts as a tenant.
func (p Principal) IsTenant() bool { return p.Role == RoleTenant }

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
