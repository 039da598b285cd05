package dto

import (
	"time"

	"github.com/staffdesk/roster-service/internal/domain"
)

// AuditEntryResponse is one roster audit entry.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	ActorRole domain.Role    `json:"actor_role"`
	Actor     string         `json:"actor"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAuditEntryList maps entries in order.
func NewAuditEntryList(entries []domain.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID,
			EventType: e.EventType,
			ActorRole: e.ActorRole,
			Actor:     e.ActorName,
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
