package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"taskvault/backend/internal/security"
	"taskvault/backend/internal/user/domain"
	"taskvault/backend/internal/user/repository"
)

// Sentinel errors for the user service; handlers map them to HTTP statuses.
var (
	ErrEmailAlreadyRegistered = errors.New("user with this email already exists")
	ErrUsernameTaken          = errors.New("username already registered")
	ErrUserNotFound           = errors.New("user not found")
	// ErrValidation wraps field validation failures; the wrapped message is
	// safe to return to the caller.
	ErrValidation = errors.New("validation failed")
)

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)
)

// UpdateParams carries a partial user update; nil fields are left unchanged.
type UpdateParams struct {
	Email    *string
	Username *string
	Password *string
	Role     *domain.Role
	IsActive *bool
}

// Service is the single writer for users and credentials. All mutation goes
// through it so uniqueness and role rules hold.
type Service struct {
	repo   repository.Repository
	hasher *security.Hasher
}

// New returns a user Service backed by repo, hashing passwords with hasher.
func New(repo repository.Repository, hasher *security.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Create registers a new user with the given credentials and role. The
// plaintext password is hashed and discarded; it is never stored or logged.
func (s *Service) Create(ctx context.Context, email, username, password string, role domain.Role) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if role == "" {
		role = domain.RoleUser
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, email, username, hashed, role)
}

// CreateExternal provisions a user for the external identity bridge with the
// unusable sentinel password hash. Password validation does not apply; the
// account can only authenticate through the bridge.
func (s *Service) CreateExternal(ctx context.Context, email, username string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	return s.create(ctx, email, username, security.UnusablePasswordHash, domain.RoleUser)
}

func (s *Service) create(ctx context.Context, email, username, passwordHash string, role domain.Role) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     true,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns the user for id, or ErrUserNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetByEmail returns the user for email, or nil if absent.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// List returns users paginated by limit and offset.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]*domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// Update applies params to the user identified by targetID on behalf of
// actor. Role and active-state transitions require the actor to be an admin;
// requests for them from other actors are dropped, not rejected, matching the
// profile-update contract. Email and username uniqueness is re-checked when
// they change.
func (s *Service) Update(ctx context.Context, actor *domain.User, targetID int64, params UpdateParams) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if params.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*params.Email))
		if email != u.Email {
			if err := validateEmail(email); err != nil {
				return nil, err
			}
			existing, err := s.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrEmailAlreadyRegistered
			}
			u.Email = email
		}
	}
	if params.Username != nil {
		username := strings.TrimSpace(*params.Username)
		if username != u.Username {
			if err := validateUsername(username); err != nil {
				return nil, err
			}
			existing, err := s.repo.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrUsernameTaken
			}
			u.Username = username
		}
	}
	if params.Password != nil {
		if err := validatePassword(*params.Password); err != nil {
			return nil, err
		}
		hashed, err := s.hasher.Hash(*params.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hashed
	}
	if actor != nil && actor.Role == domain.RoleAdmin {
		if params.Role != nil {
			if !params.Role.Valid() {
				return nil, fmt.Errorf("%w: unknown role", ErrValidation)
			}
			u.Role = *params.Role
		}
		if params.IsActive != nil {
			u.IsActive = *params.IsActive
		}
	}
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateAdmin creates an admin user, or promotes the existing user with the
// given email to admin. This is the bootstrap path that does not require an
// acting admin.
func (s *Service) CreateAdmin(ctx context.Context, email, username, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role != domain.RoleAdmin {
			existing.Role = domain.RoleAdmin
			existing.UpdatedAt = time.Now().UTC()
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	return s.Create(ctx, email, username, password, domain.RoleAdmin)
}

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func validateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-50 characters of letters, numbers, underscores, and hyphens", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", ErrValidation)
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", ErrValidation)
	}
	if !hasLower {
		return fmt.Errorf("%w: password must contain at least one lowercase letter", ErrValidation)
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", ErrValidation)
	}
	return nil
}
