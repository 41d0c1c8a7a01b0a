package routing

// Decision is the provider-agnostic output of the IVR menu engine.
//
// It carries only what the provider adapter (TwiML renderer) and the dispatcher
// need to execute the next step. Which fields are set depends on Action.
type Decision struct {
	Action Action `json:"action"`

	// Bridge: connect the caller to TargetNumber, presenting CallerIDNumber.
	TargetNumber   string `json:"target_number,omitempty"`
	CallerIDNumber string `json:"caller_id_number,omitempty"`

	// RecordVoicemail: speak Prompt, record, speak FallbackPrompt if nothing was captured.
	Prompt         string `json:"prompt,omitempty"`
	FallbackPrompt string `json:"fallback_prompt,omitempty"`

	// InvalidSelection: speak Message and stop.
	Message string `json:"message,omitempty"`
}

type Action string

const (
	ActionBridge           Action = "bridge"
	ActionRecordVoicemail  Action = "record_voicemail"
	ActionInvalidSelection Action = "invalid_selection"
)

// RequestsBridge reports whether the dispatcher must place an outbound call.
func (d Decision) RequestsBridge() bool { return d.Action == ActionBridge }

// RequestsVoicemail reports whether the caller is routed to recording.
func (d Decision) RequestsVoicemail() bool { return d.Action == ActionRecordVoicemail }
