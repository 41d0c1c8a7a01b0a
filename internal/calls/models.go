package calls

import "time"

// CallRecord represents one inbound call event.
//
// Invariants:
// - CallID is generated at ingestion and never changes.
// - A record is written exactly once, fully assembled, at the end of one webhook turn.
//   Side-effect fields are never patched in afterwards.
// - Voicemail is linked through a separate VoicemailRecord, never by rewriting this row.
type CallRecord struct {
	CallID     string `json:"callId" db:"call_id" bson:"callId"`
	FromNumber string `json:"fromNumber" db:"from_number" bson:"fromNumber"`

	// SelectedOption is nil before the caller has pressed anything.
	SelectedOption *string `json:"selectedOption,omitempty" db:"selected_option" bson:"selectedOption,omitempty"`

	Timestamp time.Time `json:"timestamp" db:"created_at" bson:"timestamp"`

	// OutboundCallSid is set only when a bridge call was placed successfully.
	OutboundCallSid *string `json:"outboundCallSid,omitempty" db:"outbound_call_sid" bson:"outboundCallSid,omitempty"`

	Redirected       bool `json:"redirected" db:"redirected" bson:"redirected"`
	VoicemailPending bool `json:"voicemailPending" db:"voicemail_pending" bson:"voicemailPending"`
}

// Option returns the selected digit, or "" when none was sent.
func (r CallRecord) Option() string {
	if r.SelectedOption == nil {
		return ""
	}
	return *r.SelectedOption
}

// VoicemailRecord represents one completed recording.
// At most one exists per CallID; it is immutable once written.
type VoicemailRecord struct {
	CallID       string    `json:"callId" db:"call_id" bson:"callId"`
	RecordingURL string    `json:"recordingUrl" db:"recording_url" bson:"recordingUrl"`
	Timestamp    time.Time `json:"timestamp" db:"created_at" bson:"timestamp"`
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
