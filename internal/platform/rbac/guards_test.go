package rbac

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"taskvault/backend/internal/server/httperr"
	"taskvault/backend/internal/server/middleware"
	"taskvault/backend/internal/user/domain"
)

func ctxWith(ident middleware.Identity) context.Context {
	return middleware.WithIdentity(context.Background(), ident)
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	var herr *httperr.Error
	if !errors.As(err, &herr) {
		t.Fatalf("err = %v, want *httperr.Error", err)
	}
	if herr.Status != status {
		t.Errorf("status = %d, want %d", herr.Status, status)
	}
}

func TestRequireAuthenticated(t *testing.T) {
	_, err := RequireAuthenticated(context.Background())
	wantStatus(t, err, http.StatusUnauthorized)

	ident, err := RequireAuthenticated(ctxWith(middleware.Identity{ID: 1, Role: domain.RoleUser, IsActive: true}))
	if err != nil {
		t.Fatalf("RequireAuthenticated: %v", err)
	}
	if ident.ID != 1 {
		t.Errorf("identity id = %d, want 1", ident.ID)
	}
}

func TestRequireActive(t *testing.T) {
	_, err := RequireActive(ctxWith(middleware.Identity{ID: 1, Role: domain.RoleUser, IsActive: false}))
	wantStatus(t, err, http.StatusBadRequest)

	if _, err := RequireActive(ctxWith(middleware.Identity{ID: 1, Role: domain.RoleUser, IsActive: true})); err != nil {
		t.Errorf("RequireActive: %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	_, err := RequireAdmin(ctxWith(middleware.Identity{ID: 1, Role: domain.RoleUser, IsActive: true}))
	wantStatus(t, err, http.StatusForbidden)

	ident, err := RequireAdmin(ctxWith(middleware.Identity{ID: 2, Role: domain.RoleAdmin, IsActive: true}))
	if err != nil {
		t.Fatalf("RequireAdmin: %v", err)
	}
	if ident.Role != domain.RoleAdmin {
		t.Errorf("role = %q, want admin", ident.Role)
	}
}

func TestRequireRoles_ListsRequiredRoles(t *testing.T) {
	_, err := RequireRoles(ctxWith(middleware.Identity{ID: 1, Role: domain.RoleUser, IsActive: true}), domain.RoleAdmin)
	var herr *httperr.Error
	if !errors.As(err, &herr) {
		t.Fatalf("err = %v, want *httperr.Error", err)
	}
	want := "Not enough permissions. Required roles: admin"
	if herr.Message != want {
		t.Errorf("message = %q, want %q", herr.Message, want)
	}
}

func TestRequireOwner(t *testing.T) {
	ident := middleware.Identity{ID: 1, Role: domain.RoleUser, IsActive: true}

	if err := RequireOwner(ident, 1); err != nil {
		t.Errorf("RequireOwner same id: %v", err)
	}
	wantStatus(t, RequireOwner(ident, 2), http.StatusForbidden)
}
