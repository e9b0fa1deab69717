package domain

import (
	"errors"
	"time"
)

// Todo is a user-owned task item. UserID is the owning identity; handlers
// must reject access by any other identity.
type Todo struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the todo for persistence.
func (t *Todo) Validate() error {
	if t.Title == "" {
		return errors.New("title is required")
	}
	if t.UserID == 0 {
		return errors.New("owner is required")
	}
	return nil
}
