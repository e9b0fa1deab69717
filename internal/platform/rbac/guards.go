// Package rbac provides role and ownership guards that compose on top of an
// authenticated request. Guards read the acting identity from the request
// context and return classified errors for the handler to render.
package rbac

import (
	"context"
	"fmt"
	"strings"

	"taskvault/backend/internal/server/httperr"
	"taskvault/backend/internal/server/middleware"
	"taskvault/backend/internal/user/domain"
)

// RequireAuthenticated returns the acting identity, or a 401 error when the
// request carries none.
func RequireAuthenticated(ctx context.Context) (middleware.Identity, error) {
	ident, ok := middleware.IdentityFrom(ctx)
	if !ok {
		return middleware.Identity{}, httperr.Unauthorized("Could not validate credentials")
	}
	return ident, nil
}

// RequireActive returns the acting identity, rejecting inactive accounts.
// The auth middleware already checks is_active against the live store; this
// is the redundant re-check used by handlers that must not trust upstream
// wiring.
func RequireActive(ctx context.Context) (middleware.Identity, error) {
	ident, err := RequireAuthenticated(ctx)
	if err != nil {
		return middleware.Identity{}, err
	}
	if !ident.IsActive {
		return middleware.Identity{}, httperr.BadRequest("Inactive user")
	}
	return ident, nil
}

// RequireAdmin returns the acting identity if it holds the admin role, and a
// 403 error otherwise.
func RequireAdmin(ctx context.Context) (middleware.Identity, error) {
	return RequireRoles(ctx, domain.RoleAdmin)
}

// RequireRoles returns the acting identity if its role is in the allowed set,
// and a 403 error listing the required roles otherwise.
func RequireRoles(ctx context.Context, allowed ...domain.Role) (middleware.Identity, error) {
	ident, err := RequireActive(ctx)
	if err != nil {
		return middleware.Identity{}, err
	}
	for _, role := range allowed {
		if ident.Role == role {
			return ident, nil
		}
	}
	names := make([]string, len(allowed))
	for i, role := range allowed {
		names[i] = string(role)
	}
	return middleware.Identity{}, httperr.Forbidden(
		fmt.Sprintf("Not enough permissions. Required roles: %s", strings.Join(names, ", ")))
}

// RequireOwner rejects access to a resource whose owning identity differs
// from the acting identity.
func RequireOwner(ident middleware.Identity, ownerID int64) error {
	if ident.ID != ownerID {
		return httperr.Forbidden("Not enough permissions")
	}
	return nil
}
