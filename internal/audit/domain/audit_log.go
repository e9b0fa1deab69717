package domain

import "time"

// AuditLog is one recorded auth-related event: who did what from where.
// UserID is zero for events with no resolved user (e.g. failed logins).
type AuditLog struct {
	ID        string
	UserID    int64
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
