package telephony

import "context"

// Dialer places the outbound bridge leg at the provider.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Every error returned is a *SideEffectError.
type Dialer interface {
	// PlaceBridgeCall rings req.To and returns the provider call sid.
	PlaceBridgeCall(ctx context.Context, req BridgeCallRequest) (string, error)
	// BridgeFinished is called once the bridge leg reaches a terminal status.
	BridgeFinished(ctx context.Context, destination string) error
}

// BridgeCallRequest describes the outbound leg placed for option 1.
type BridgeCallRequest struct {
	// To is the fixed bridge destination.
	To string `json:"to"`
	// From is the service's own number, presented as caller id.
	From string `json:"from"`

	// AnswerURL returns the TwiML played when the destination answers.
	AnswerURL string `json:"answer_url"`
	// StatusCallbackURL receives the terminal status of the leg.
	StatusCallbackURL string `json:"status_callback_url,omitempty"`
}

// BridgeLimiter caps concurrent bridge calls per destination.
type BridgeLimiter interface {
	Acquire(ctx context.Context, destination string) (bool, error)
	Release(ctx context.Context, destination string) error
}
