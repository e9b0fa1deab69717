// Package audit records auth-related events to the operational log sink.
// Rejection responses carry generic messages; the detail lands here.
package audit

import (
	"context"
	stdlog "log"
	"time"

	"github.com/google/uuid"
	otellog "go.opentelemetry.io/otel/log"

	"taskvault/backend/internal/audit/domain"
	auditrepo "taskvault/backend/internal/audit/repository"
	"taskvault/backend/internal/server/middleware"
)

// Event actions recorded by the auth paths.
const (
	ActionLoginSuccess   = "login_success"
	ActionLoginFailure   = "login_failure"
	ActionUserRegistered = "user_registered"
	ActionBridgeExchange = "bridge_exchange"
	ActionBridgeFailure  = "bridge_failure"
)

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID int64, action, resource, metadata string)
}

// Logger implements AuditLogger, persisting to the audit repository and
// emitting an OpenTelemetry log record for external sinks. Either sink may be
// nil.
type Logger struct {
	repo auditrepo.Repository
	emit otellog.Logger
}

// NewLogger returns an AuditLogger writing to repo and, when emitter is
// non-nil, to the OpenTelemetry log pipeline.
func NewLogger(repo auditrepo.Repository, emitter otellog.Logger) *Logger {
	return &Logger{repo: repo, emit: emitter}
}

// LogEvent writes one audit entry. Client IP is read from the request
// context. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID int64, action, resource, metadata string) {
	ip := middleware.ClientIPFrom(ctx)

	if l.emit != nil {
		var rec otellog.Record
		rec.SetTimestamp(time.Now().UTC())
		rec.SetSeverity(otellog.SeverityInfo)
		rec.SetBody(otellog.StringValue(action))
		rec.AddAttributes(
			otellog.Int64("user.id", userID),
			otellog.String("resource", resource),
			otellog.String("client.ip", ip),
			otellog.String("metadata", metadata),
		)
		l.emit.Emit(ctx, rec)
	}

	if l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		stdlog.Printf("audit: failed to persist %s event: %v", action, err)
	}
}

// Nop is an AuditLogger that records nothing, for tests and tools.
type Nop struct{}

// LogEvent discards the event.
func (Nop) LogEvent(context.Context, int64, string, string, string) {}
