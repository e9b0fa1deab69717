package repository

import (
	"context"
	"database/sql"
	"errors"

	"taskvault/backend/internal/todo/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a todo repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const todoColumns = "id, user_id, title, description, completed, created_at, updated_at"

// GetByID returns the todo for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	var t domain.Todo
	err := r.db.QueryRowContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id = $1", id,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ListByUser returns the user's todos ordered by id, paginated by limit and offset.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE user_id = $1 ORDER BY id LIMIT $2 OFFSET $3",
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Todo
	for rows.Next() {
		var t domain.Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description,
			&t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// Create persists the todo and assigns the generated id to t.ID.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Todo) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO todos (user_id, title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		t.UserID, t.Title, t.Description, t.Completed, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
}

// Update updates the existing todo record. Missing rows are a no-op.
func (r *PostgresRepository) Update(ctx context.Context, t *domain.Todo) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE todos SET title = $2, description = $3, completed = $4, updated_at = $5 WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Completed, t.UpdatedAt)
	return err
}

// Delete removes the todo for id. Missing rows are a no-op.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM todos WHERE id = $1", id)
	return err
}
