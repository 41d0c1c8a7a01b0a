package telephony

import (
	"net/http"
	"strings"
)

// Twilio sends application/x-www-form-urlencoded webhooks by default.
// Ref: https://www.twilio.com/docs/usage/webhooks/voice-webhooks
//
// These forms are the explicit schema for the fields we consume. Parsing
// validates required fields; routing decisions are not made here.

// InboundCallForm is the subset of the voice webhook used by the IVR menu.
// Digits and From are both optional: the first contact carries no digits and
// withheld numbers may arrive empty.
type InboundCallForm struct {
	CallSid string
	From    string
	To      string
	Digits  string
}

// ParamNoRecording marks the fallback redirect taken when nothing was recorded.
const ParamNoRecording = "NoRecording"

// VoicemailForm is the recording-completion callback. CallId is our own
// correlation key and is carried on the callback URL query string.
// NoRecording forms carry no RecordingUrl.
type VoicemailForm struct {
	CallID            string
	RecordingURL      string
	RecordingSid      string
	RecordingDuration string
	NoRecording       bool
}

// OutboundStatusForm is the status callback for the bridge leg.
type OutboundStatusForm struct {
	CallSid    string
	CallStatus string
}

func ParseInboundCall(r *http.Request) (InboundCallForm, error) {
	if err := r.ParseForm(); err != nil {
		return InboundCallForm{}, &ValidationError{Reason: "unparseable form body"}
	}
	return InboundCallForm{
		CallSid: strings.TrimSpace(r.PostFormValue("CallSid")),
		From:    normalizePhone(r.PostFormValue("From")),
		To:      normalizePhone(r.PostFormValue("To")),
		Digits:  strings.TrimSpace(r.PostFormValue("Digits")),
	}, nil
}

// ParseVoicemail reads CallId and RecordingUrl from the body or the query string.
func ParseVoicemail(r *http.Request) (VoicemailForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoicemailForm{}, &ValidationError{Reason: "unparseable form body"}
	}
	f := VoicemailForm{
		CallID:            strings.TrimSpace(r.FormValue("CallId")),
		RecordingURL:      strings.TrimSpace(r.FormValue("RecordingUrl")),
		RecordingSid:      strings.TrimSpace(r.FormValue("RecordingSid")),
		RecordingDuration: strings.TrimSpace(r.FormValue("RecordingDuration")),
	}
	if f.CallID == "" {
		return VoicemailForm{}, &ValidationError{Field: "CallId", Reason: "required"}
	}
	if f.RecordingURL == "" && r.URL.Query().Get(ParamNoRecording) == "1" {
		f.NoRecording = true
		return f, nil
	}
	if f.RecordingURL == "" {
		return VoicemailForm{}, &ValidationError{Field: "RecordingUrl", Reason: "required"}
	}
	return f, nil
}

func ParseOutboundStatus(r *http.Request) (OutboundStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return OutboundStatusForm{}, &ValidationError{Reason: "unparseable form body"}
	}
	f := OutboundStatusForm{
		CallSid:    strings.TrimSpace(r.PostFormValue("CallSid")),
		CallStatus: strings.TrimSpace(r.PostFormValue("CallStatus")),
	}
	if f.CallStatus == "" {
		return OutboundStatusForm{}, &ValidationError{Field: "CallStatus", Reason: "required"}
	}
	return f, nil
}

// Terminal reports whether the bridge leg has finished.
func (f OutboundStatusForm) Terminal() bool {
	switch f.CallStatus {
	case "completed", "busy", "failed", "no-answer", "canceled":
		return true
	default:
		return false
	}
}

func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return s
}
