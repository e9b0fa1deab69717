package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskvault/backend/internal/audit"
	"taskvault/backend/internal/security"
	"taskvault/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	// ErrInvalidCredentials covers unknown email, wrong password, and
	// inactive account. Callers must not distinguish these.
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// AuthResult holds an issued access token and the authenticated user.
type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *domain.User
}

// UserGetter is the minimal user lookup needed by the auth service.
type UserGetter interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AuthService implements password login: credential verification against the
// stored hash, then stateless token issuance carrying the user's current
// role. No server-side session is recorded; possession of the token is
// authorization until expiry.
type AuthService struct {
	users  UserGetter
	hasher *security.Hasher
	tokens *security.TokenProvider
	audit  audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(users UserGetter, hasher *security.Hasher, tokens *security.TokenProvider, auditLogger audit.AuditLogger) *AuthService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, audit: auditLogger}
}

// Login authenticates email/password and returns a signed access token with
// the default TTL. Every failure mode collapses into ErrInvalidCredentials;
// the distinguishing detail goes to the audit sink only.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		s.audit.LogEvent(ctx, 0, audit.ActionLoginFailure, "auth", "unknown email "+email)
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		s.audit.LogEvent(ctx, u.ID, audit.ActionLoginFailure, "auth", "invalid password")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.audit.LogEvent(ctx, u.ID, audit.ActionLoginFailure, "auth", "inactive account")
		return nil, ErrInvalidCredentials
	}
	return s.IssueFor(ctx, u)
}

// IssueFor signs an access token for an already-authenticated user, carrying
// the user's current role. Used by password login and the identity bridge.
func (s *AuthService) IssueFor(ctx context.Context, u *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(u.ID, string(u.Role), 0)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.audit.LogEvent(ctx, u.ID, audit.ActionLoginSuccess, "auth", "role "+string(u.Role))
	return &AuthResult{AccessToken: token, ExpiresAt: expiresAt, User: u}, nil
}
