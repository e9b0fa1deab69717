package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskvault/backend/internal/todo/domain"
	"taskvault/backend/internal/todo/repository"
)

// Sentinel errors for the todo service; handlers map them to HTTP statuses.
var (
	ErrTodoNotFound = errors.New("todo not found")
	// ErrValidation wraps field validation failures; the wrapped message is
	// safe to return to the caller.
	ErrValidation = errors.New("validation failed")
)

// UpdateParams carries a partial todo update; nil fields are left unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Service owns todo persistence. Ownership enforcement is the caller's
// concern; the service exposes the owning user id on every returned todo.
type Service struct {
	repo repository.Repository
}

// New returns a todo Service backed by repo.
func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create persists a new todo owned by userID.
func (s *Service) Create(ctx context.Context, userID int64, title, description string) (*domain.Todo, error) {
	now := time.Now().UTC()
	t := &domain.Todo{
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the todo for id, or ErrTodoNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTodoNotFound
	}
	return t, nil
}

// ListByUser returns the user's todos paginated by limit and offset.
func (s *Service) ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*domain.Todo, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Update applies params to the todo for id and returns the updated todo.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*domain.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTodoNotFound
	}
	if params.Title != nil {
		t.Title = strings.TrimSpace(*params.Title)
	}
	if params.Description != nil {
		t.Description = *params.Description
	}
	if params.Completed != nil {
		t.Completed = *params.Completed
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the todo for id. Deleting an absent todo returns ErrTodoNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTodoNotFound
	}
	return s.repo.Delete(ctx, id)
}
