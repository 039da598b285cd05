package events

import (
	"time"

	"github.com/staffdesk/roster-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRosterReplaced     EventType = "roster_replaced"
	EventRosterAppended     EventType = "roster_appended"
	EventRosterBulkUpdated  EventType = "roster_bulk_updated"
	EventRosterCleared      EventType = "roster_cleared"
	EventStaffRecordUpdated EventType = "staff_record_updated"
	EventStaffContactEdited EventType = "staff_contact_edited"
	EventStaffRecordDeleted EventType = "staff_record_deleted"
)

// AllEventTypes lists every roster event.
var AllEventTypes = []EventType{
	EventRosterReplaced,
	EventRosterAppended,
	EventRosterBulkUpdated,
	EventRosterCleared,
	EventStaffRecordUpdated,
	EventStaffContactEdited,
	EventStaffRecordDeleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role     domain.Role `json:"role"`
	Username string      `json:"username"`
}

// ActorFrom builds the actor of an event from the caller identity.
func ActorFrom(identity domain.Identity) Actor {
	return Actor{Role: identity.Role, Username: identity.Username}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IngestPayload summarizes a bulk ingestion.
type IngestPayload struct {
	BatchID  string `json:"batch_id"`
	Filename string `json:"filename"`
	Received int    `json:"received"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Deleted  int64  `json:"deleted"`
	Skipped  int    `json:"skipped"`
}

// RosterClearedPayload payload.
type RosterClearedPayload struct {
	Deleted int64 `json:"deleted"`
}

// StaffRecordPayload identifies a single record and the fields that changed.
type StaffRecordPayload struct {
	RecordID           int64    `json:"record_id"`
	Fileno             string   `json:"fileno"`
	Fields             []string `json:"fields,omitempty"`
	CredentialsChanged bool     `json:"credentials_changed,omitempty"`
}
