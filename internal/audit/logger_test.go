package audit

import (
	"context"
	"errors"
	"testing"

	"taskvault/backend/internal/audit/domain"
	"taskvault/backend/internal/server/middleware"
)

type memRepo struct {
	entries []*domain.AuditLog
	err     error
}

func (r *memRepo) Create(_ context.Context, a *domain.AuditLog) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, a)
	return nil
}

func (r *memRepo) ListByUser(_ context.Context, userID int64, limit, offset int32) ([]*domain.AuditLog, error) {
	var out []*domain.AuditLog
	for _, a := range r.entries {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestLogger_LogEvent(t *testing.T) {
	repo := &memRepo{}
	l := NewLogger(repo, nil)

	ctx := middleware.WithClientIP(context.Background(), "10.1.2.3")
	l.LogEvent(ctx, 7, ActionLoginSuccess, "auth", "role user")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	got := repo.entries[0]
	if got.ID == "" {
		t.Error("entry should get an id")
	}
	if got.UserID != 7 || got.Action != ActionLoginSuccess || got.Resource != "auth" {
		t.Errorf("entry = %+v", got)
	}
	if got.IP != "10.1.2.3" {
		t.Errorf("ip = %q, want client address from context", got.IP)
	}
	if got.CreatedAt.IsZero() {
		t.Error("entry should be timestamped")
	}
}

func TestLogger_LogEvent_NoClientIP(t *testing.T) {
	repo := &memRepo{}
	l := NewLogger(repo, nil)

	l.LogEvent(context.Background(), 1, ActionLoginFailure, "auth", "invalid password")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want unknown fallback", repo.entries[0].IP)
	}
}

func TestLogger_LogEvent_BestEffort(t *testing.T) {
	repo := &memRepo{err: errors.New("connection refused")}
	l := NewLogger(repo, nil)

	// Must not panic or surface the store error.
	l.LogEvent(context.Background(), 1, ActionLoginFailure, "auth", "invalid password")
}
