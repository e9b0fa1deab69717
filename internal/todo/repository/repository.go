package repository

import (
	"context"

	"taskvault/backend/internal/todo/domain"
)

// Repository defines persistence for todos.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Todo, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*domain.Todo, error)
	// Create persists the todo and assigns its ID.
	Create(ctx context.Context, t *domain.Todo) error
	Update(ctx context.Context, t *domain.Todo) error
	Delete(ctx context.Context, id int64) error
}
