package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskvault/backend/internal/security"
	"taskvault/backend/internal/user/domain"
)

type memUsers struct {
	byEmail map[string]*domain.User
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func newTestAuthService(t *testing.T, users ...*domain.User) (*AuthService, *security.TokenProvider) {
	t.Helper()
	repo := &memUsers{byEmail: make(map[string]*domain.User)}
	for _, u := range users {
		repo.byEmail[u.Email] = u
	}
	tokens, err := security.NewTokenProvider([]byte("test-secret"), "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenProvider: %v", err)
	}
	return NewAuthService(repo, security.NewHasher(4), tokens, nil), tokens
}

func testUser(t *testing.T, email, password string, active bool) *domain.User {
	t.Helper()
	hash, err := security.NewHasher(4).Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return &domain.User{
		ID:           7,
		Email:        email,
		Username:     "alice",
		PasswordHash: hash,
		IsActive:     active,
		Role:         domain.RoleUser,
	}
}

func TestAuthService_Login(t *testing.T) {
	u := testUser(t, "alice@example.com", "Passw0rd1", true)
	svc, tokens := newTestAuthService(t, u)

	res, err := svc.Login(context.Background(), "Alice@Example.com", "Passw0rd1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != u.ID {
		t.Errorf("user id = %d, want %d", res.User.ID, u.ID)
	}

	claims, err := tokens.Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("Verify issued token: %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if id != u.ID {
		t.Errorf("token subject = %d, want %d", id, u.ID)
	}
	if claims.Role != string(domain.RoleUser) {
		t.Errorf("token role = %q, want %q", claims.Role, domain.RoleUser)
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Error("ExpiresAt should be in the future")
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	u := testUser(t, "alice@example.com", "Passw0rd1", true)
	inactive := testUser(t, "bob@example.com", "Passw0rd1", false)
	svc, _ := newTestAuthService(t, u, inactive)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "Passw0rd1"},
		{"wrong password", "alice@example.com", "wrong"},
		{"inactive account", "bob@example.com", "Passw0rd1"},
		{"empty email", "", "Passw0rd1"},
		{"empty password", "alice@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestAuthService_Login_ExternalAccountCannotUsePassword(t *testing.T) {
	u := &domain.User{
		ID:           3,
		Email:        "ext@example.com",
		Username:     "ext",
		PasswordHash: security.UnusablePasswordHash,
		IsActive:     true,
		Role:         domain.RoleUser,
	}
	svc, _ := newTestAuthService(t, u)

	_, err := svc.Login(context.Background(), "ext@example.com", security.UnusablePasswordHash)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials for bridge-provisioned account", err)
	}
}
