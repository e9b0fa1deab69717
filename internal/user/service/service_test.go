package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"taskvault/backend/internal/security"
	"taskvault/backend/internal/user/domain"
)

type memRepo struct {
	nextID int64
	users  map[int64]*domain.User
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int32) ([]*domain.User, error) {
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []*domain.User
	for i, id := range ids {
		if int32(i) < offset {
			continue
		}
		if int32(len(out)) >= limit {
			break
		}
		cp := *r.users[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) Create(_ context.Context, u *domain.User) error {
	u.ID = r.nextID
	r.nextID++
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) Update(_ context.Context, u *domain.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return New(repo, security.NewHasher(4)), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Create(context.Background(), "Alice@Example.com", "alice", "Passw0rd1", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Error("Create should assign an ID")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased %q", u.Email, "alice@example.com")
	}
	if u.Role != domain.RoleUser {
		t.Errorf("role = %q, want default %q", u.Role, domain.RoleUser)
	}
	if !u.IsActive {
		t.Error("new users should be active")
	}
	if u.PasswordHash == "Passw0rd1" || u.PasswordHash == "" {
		t.Error("password should be stored hashed")
	}
}

func TestService_Create_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "alice@example.com", "alice", "Passw0rd1", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, "ALICE@example.com", "alice2", "Passw0rd1", "")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("duplicate email: err = %v, want ErrEmailAlreadyRegistered", err)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		username string
		password string
	}{
		{"bad email", "not-an-email", "alice", "Passw0rd1"},
		{"short username", "a@example.com", "ab", "Passw0rd1"},
		{"username bad chars", "a@example.com", "al ice", "Passw0rd1"},
		{"short password", "a@example.com", "alice", "Pw1"},
		{"no uppercase", "a@example.com", "alice", "passw0rd1"},
		{"no lowercase", "a@example.com", "alice", "PASSW0RD1"},
		{"no digit", "a@example.com", "alice", "Password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.email, tt.username, tt.password, "")
			if !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestService_CreateExternal(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.CreateExternal(context.Background(), "bob@example.com", "")
	if err != nil {
		t.Fatalf("CreateExternal: %v", err)
	}
	if u.Username != "bob" {
		t.Errorf("username = %q, want local part %q", u.Username, "bob")
	}
	if u.PasswordHash != security.UnusablePasswordHash {
		t.Errorf("password hash = %q, want unusable sentinel", u.PasswordHash)
	}
	if security.NewHasher(4).Verify("anything", u.PasswordHash) {
		t.Error("sentinel hash should never verify a password")
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), 42)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestService_Update_RoleRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Create(ctx, "alice@example.com", "alice", "Passw0rd1", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	role := domain.RoleAdmin
	inactive := false
	got, err := svc.Update(ctx, u, u.ID, UpdateParams{Role: &role, IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Role != domain.RoleUser {
		t.Errorf("role = %q; a non-admin actor must not change roles", got.Role)
	}
	if !got.IsActive {
		t.Error("a non-admin actor must not change active state")
	}
}

func TestService_Update_AdminSetsRoleAndActive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	admin, err := svc.Create(ctx, "root@example.com", "root", "Passw0rd1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Create admin: %v", err)
	}
	u, err := svc.Create(ctx, "alice@example.com", "alice", "Passw0rd1", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	role := domain.RoleAdmin
	inactive := false
	got, err := svc.Update(ctx, admin, u.ID, UpdateParams{Role: &role, IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Role != domain.RoleAdmin {
		t.Errorf("role = %q, want %q", got.Role, domain.RoleAdmin)
	}
	if got.IsActive {
		t.Error("admin update should deactivate the user")
	}
}

func TestService_Update_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "alice@example.com", "alice", "Passw0rd1", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	bob, err := svc.Create(ctx, "bob@example.com", "bob", "Passw0rd1", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	taken := "alice"
	_, err = svc.Update(ctx, bob, bob.ID, UpdateParams{Username: &taken})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestService_Update_Password(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	hasher := security.NewHasher(4)

	u, err := svc.Create(ctx, "alice@example.com", "alice", "Passw0rd1", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	next := "N3wPassword"
	got, err := svc.Update(ctx, u, u.ID, UpdateParams{Password: &next})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !hasher.Verify(next, got.PasswordHash) {
		t.Error("new password should verify against the stored hash")
	}
	if hasher.Verify("Passw0rd1", got.PasswordHash) {
		t.Error("old password should no longer verify")
	}
}

func TestService_CreateAdmin_PromotesExisting(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Create(ctx, "alice@example.com", "alice", "Passw0rd1", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.CreateAdmin(ctx, "alice@example.com", "ignored", "AlsoIgnored1")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("CreateAdmin created a new user (id %d), want promotion of %d", got.ID, u.ID)
	}
	if got.Role != domain.RoleAdmin {
		t.Errorf("role = %q, want %q", got.Role, domain.RoleAdmin)
	}
}

func TestService_List_ClampsPagination(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := svc.Create(ctx, name+"@example.com", name, "Passw0rd1", ""); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	got, err := svc.List(ctx, -1, -5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != len(repo.users) {
		t.Errorf("List returned %d users, want %d", len(got), len(repo.users))
	}
}
