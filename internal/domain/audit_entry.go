package domain

import "time"

// AuditEntry is an immutable record of one roster mutation.
type AuditEntry struct {
	ID        string
	EventType string
	ActorRole Role
	ActorName string
	Payload   map[string]any
	CreatedAt time.Time
}
