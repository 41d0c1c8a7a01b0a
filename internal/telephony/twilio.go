package telephony

import (
	"context"
	"errors"

	"ivr-service/internal/config"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// callCreator is the slice of the Twilio REST API the dialer needs.
type callCreator interface {
	CreateCall(params *twilioapi.CreateCallParams) (*twilioapi.ApiV2010Call, error)
}

// TwilioDialer places bridge calls through the Twilio REST API.
type TwilioDialer struct {
	calls   callCreator
	limiter BridgeLimiter
}

// NewTwilioDialer builds a dialer from account credentials. limiter may be nil.
func NewTwilioDialer(cfg config.TwilioConfig, limiter BridgeLimiter) *TwilioDialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioDialer{calls: client.Api, limiter: limiter}
}

type createCallResult struct {
	sid string
	err error
}

// PlaceBridgeCall honours ctx: the SDK call itself is not cancellable, so the
// dialer stops waiting when ctx is done and reports the timeout.
func (d *TwilioDialer) PlaceBridgeCall(ctx context.Context, req BridgeCallRequest) (string, error) {
	if req.To == "" || req.From == "" || req.AnswerURL == "" {
		return "", &SideEffectError{Op: "create call", Err: errors.New("to, from and answer url required")}
	}

	if d.limiter != nil {
		ok, err := d.limiter.Acquire(ctx, req.To)
		if err != nil {
			return "", &SideEffectError{Op: "acquire bridge slot", Err: err}
		}
		if !ok {
			return "", &SideEffectError{Op: "acquire bridge slot", Err: ErrBridgeBusy}
		}
	}

	params := &twilioapi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(req.From)
	params.SetUrl(req.AnswerURL)
	params.SetMethod("POST")
	if req.StatusCallbackURL != "" {
		params.SetStatusCallback(req.StatusCallbackURL)
		params.SetStatusCallbackMethod("POST")
		params.SetStatusCallbackEvent([]string{"completed"})
	}

	done := make(chan createCallResult, 1)
	go func() {
		call, err := d.calls.CreateCall(params)
		if err != nil {
			done <- createCallResult{err: err}
			return
		}
		if call == nil || call.Sid == nil || *call.Sid == "" {
			done <- createCallResult{err: errors.New("provider returned no call sid")}
			return
		}
		done <- createCallResult{sid: *call.Sid}
	}()

	select {
	case <-ctx.Done():
		// The call may still be placed; its status callback releases the slot,
		// otherwise the slot TTL does.
		return "", &SideEffectError{Op: "create call", Err: ctx.Err()}
	case res := <-done:
		if res.err != nil {
			d.release(ctx, req.To)
			return "", &SideEffectError{Op: "create call", Err: res.err}
		}
		return res.sid, nil
	}
}

func (d *TwilioDialer) BridgeFinished(ctx context.Context, destination string) error {
	if d.limiter == nil {
		return nil
	}
	if err := d.limiter.Release(ctx, destination); err != nil {
		return &SideEffectError{Op: "release bridge slot", Err: err}
	}
	return nil
}

func (d *TwilioDialer) release(ctx context.Context, destination string) {
	if d.limiter != nil {
		_ = d.limiter.Release(context.WithoutCancel(ctx), destination)
	}
}
