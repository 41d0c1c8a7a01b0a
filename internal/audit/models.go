package audit

import "time"

// Event is an immutable, append-only operational alert.
//
// Invariants:
// - Events are never updated or deleted.
// - call_id is required; every alert is about one call.
// - Recording an alert is best-effort; do not block webhook responses on audit failures.
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	CallID string    `json:"call_id"`

	// Message is a short human-readable description for on-call.
	Message string `json:"message,omitempty"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	// EventTypeBridgeFailed: the outbound bridge call for option 1 could not be placed.
	EventTypeBridgeFailed EventType = "bridge_failed"
	// EventTypeVoicemailLinkFailed: a completed recording could not be stored against its call.
	EventTypeVoicemailLinkFailed EventType = "voicemail_link_failed"
)
