package reporting

import "time"

// ActivityEntry is one row of the activity feed: a call joined with its
// voicemail. It is computed on every read and never stored.
//
// Voicemail is nil when no recording was linked to the call, either because
// the caller never chose voicemail, hung up before recording, or the lookup failed.
type ActivityEntry struct {
	CallID         string    `json:"callId"`
	FromNumber     string    `json:"fromNumber"`
	SelectedOption *string   `json:"selectedOption"`
	Timestamp      time.Time `json:"timestamp"`
	Redirected     bool      `json:"redirected"`
	Voicemail      *string   `json:"voicemail"`
}
