package routing

import "errors"

// Menu digits understood by the engine.
const (
	OptionBridge    = "1"
	OptionVoicemail = "2"
)

const (
	DefaultVoicemailPrompt   = "Please leave your message after the tone."
	DefaultVoicemailFallback = "I did not receive a recording."
	DefaultInvalidMessage    = "Invalid selection. Please try again."
)

// EngineConfig holds the fixed numbers and prompts used by the menu.
type EngineConfig struct {
	// BridgeNumber is the fixed destination for option 1.
	BridgeNumber string
	// CallerIDNumber is the service's own provider number.
	CallerIDNumber string

	VoicemailPrompt   string
	VoicemailFallback string
	InvalidMessage    string
}

// Engine maps a caller's menu digit to the next Decision.
//
// Decide is pure: no I/O, no clock, no randomness. Persistence and outbound
// calls are orchestrated by the dispatcher from the returned Decision.
type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.BridgeNumber == "" {
		return nil, errors.New("routing: bridge number required")
	}
	if cfg.CallerIDNumber == "" {
		return nil, errors.New("routing: caller id number required")
	}
	if cfg.VoicemailPrompt == "" {
		cfg.VoicemailPrompt = DefaultVoicemailPrompt
	}
	if cfg.VoicemailFallback == "" {
		cfg.VoicemailFallback = DefaultVoicemailFallback
	}
	if cfg.InvalidMessage == "" {
		cfg.InvalidMessage = DefaultInvalidMessage
	}
	return &Engine{cfg: cfg}, nil
}

// Decide returns the decision for selectedOption. An empty option (first
// contact, nothing pressed) is treated like any unrecognized digit.
// The menu is the same for every caller.
func (e *Engine) Decide(selectedOption, fromNumber string) Decision {
	switch selectedOption {
	case OptionBridge:
		return Decision{
			Action:         ActionBridge,
			TargetNumber:   e.cfg.BridgeNumber,
			CallerIDNumber: e.cfg.CallerIDNumber,
		}
	case OptionVoicemail:
		return Decision{
			Action:         ActionRecordVoicemail,
			Prompt:         e.cfg.VoicemailPrompt,
			FallbackPrompt: e.cfg.VoicemailFallback,
		}
	default:
		return Decision{Action: ActionInvalidSelection, Message: e.cfg.InvalidMessage}
	}
}

// InvalidSelection returns the safe decision used when an event cannot be interpreted.
func (e *Engine) InvalidSelection() Decision {
	return Decision{Action: ActionInvalidSelection, Message: e.cfg.InvalidMessage}
}

// BridgeNumber is the fixed destination every bridge decision targets.
func (e *Engine) BridgeNumber() string { return e.cfg.BridgeNumber }
