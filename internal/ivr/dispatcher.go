package ivr

import (
	"context"
	"errors"
	"time"

	"ivr-service/internal/calls"
	"ivr-service/internal/observability"
	"ivr-service/internal/routing"
	"ivr-service/internal/telephony"
	"ivr-service/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultBridgeTimeout = 10 * time.Second
	defaultStoreTimeout  = 5 * time.Second
)

// Alerter receives failures that would otherwise only show up as gaps in the
// activity feed. *audit.Service implements it.
type Alerter interface {
	LogBridgeFailure(ctx context.Context, callID, destination string, cause error) error
	LogVoicemailLinkFailure(ctx context.Context, callID, recordingURL string, cause error) error
}

// Deps are the collaborators of a Dispatcher. Alerts and Metrics are optional.
type Deps struct {
	Engine   *routing.Engine
	Store    calls.Store
	Dialer   telephony.Dialer
	Renderer telephony.Renderer
	Alerts   Alerter
	Metrics  *observability.Metrics

	BridgeTimeout time.Duration
	StoreTimeout  time.Duration
}

// Dispatcher coordinates one webhook turn: decide, render, run the side
// effect, persist. It has no HTTP dependency; transport lives in httpapi.
//
// A Dispatcher holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	engine   *routing.Engine
	store    calls.Store
	dialer   telephony.Dialer
	renderer telephony.Renderer
	alerts   Alerter
	metrics  *observability.Metrics

	bridgeTimeout time.Duration
	storeTimeout  time.Duration

	clock func() time.Time
	newID func() string
}

func NewDispatcher(d Deps) (*Dispatcher, error) {
	if d.Engine == nil {
		return nil, errors.New("ivr: engine required")
	}
	if d.Store == nil {
		return nil, errors.New("ivr: store required")
	}
	if d.Dialer == nil {
		return nil, errors.New("ivr: dialer required")
	}
	if d.BridgeTimeout <= 0 {
		d.BridgeTimeout = defaultBridgeTimeout
	}
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = defaultStoreTimeout
	}
	return &Dispatcher{
		engine:        d.Engine,
		store:         d.Store,
		dialer:        d.Dialer,
		renderer:      d.Renderer,
		alerts:        d.Alerts,
		metrics:       d.Metrics,
		bridgeTimeout: d.BridgeTimeout,
		storeTimeout:  d.StoreTimeout,
		clock:         time.Now,
		newID:         uuid.NewString,
	}, nil
}

// InboundResult is the outcome of a successfully persisted inbound turn.
type InboundResult struct {
	TwiML  string
	Record calls.CallRecord
}

// HandleInboundEvent routes one menu selection.
//
// The record is stored before the TwiML is released. On a store failure the
// error is a *calls.PersistenceError and InboundResult.TwiML is empty, so the
// caller can never be told the call was routed when nothing was recorded.
// A failed bridge call does not fail the turn.
func (d *Dispatcher) HandleInboundEvent(ctx context.Context, ev telephony.InboundCallForm) (InboundResult, error) {
	log := logger.From(ctx)

	callID := d.newID()
	decision := d.engine.Decide(ev.Digits, ev.From)

	doc, err := d.renderer.Decision(decision, callID)
	if err != nil {
		return InboundResult{}, err
	}

	var outboundSid *string
	if decision.RequestsBridge() {
		outboundSid = d.placeBridge(ctx, callID, decision)
	}

	rec := calls.CallRecord{
		CallID:           callID,
		FromNumber:       ev.From,
		SelectedOption:   calls.StringPtr(ev.Digits),
		Timestamp:        d.clock().UTC(),
		OutboundCallSid:  outboundSid,
		Redirected:       decision.RequestsBridge(),
		VoicemailPending: decision.RequestsVoicemail(),
	}

	if err := d.saveCall(ctx, rec); err != nil {
		d.metrics.RecordCallPersistFailure()
		log.Error("call record not stored", "call_id", callID, "err", err)
		return InboundResult{Record: rec}, err
	}

	d.metrics.RecordCall(string(decision.Action))
	log.Info("call routed",
		"call_id", callID,
		"decision", string(decision.Action),
		"redirected", rec.Redirected,
		"voicemail_pending", rec.VoicemailPending,
	)
	return InboundResult{TwiML: doc, Record: rec}, nil
}

// placeBridge returns the provider sid, or nil when the call could not be placed.
func (d *Dispatcher) placeBridge(ctx context.Context, callID string, decision routing.Decision) *string {
	bctx, cancel := context.WithTimeout(ctx, d.bridgeTimeout)
	defer cancel()

	sid, err := d.dialer.PlaceBridgeCall(bctx, telephony.BridgeCallRequest{
		To:                decision.TargetNumber,
		From:              decision.CallerIDNumber,
		AnswerURL:         d.renderer.OutboundVoiceURL(),
		StatusCallbackURL: d.renderer.OutboundStatusURL(),
	})
	if err != nil {
		if !telephony.IsSideEffect(err) {
			err = &telephony.SideEffectError{Op: "create call", Err: err}
		}
		d.metrics.RecordBridgeFailure()
		logger.From(ctx).Error("bridge call failed", "call_id", callID, "to", decision.TargetNumber, "err", err)
		d.alert(ctx, func(ctx context.Context) error {
			return d.alerts.LogBridgeFailure(ctx, callID, decision.TargetNumber, err)
		})
		return nil
	}
	return &sid
}

func (d *Dispatcher) saveCall(ctx context.Context, rec calls.CallRecord) error {
	sctx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()
	return asPersistence("save call", rec.CallID, d.store.SaveCall(sctx, rec))
}

// HandleVoicemailEvent links a finished recording to its call and returns the
// acknowledgment.
//
// The TwiML is returned even when err is non-nil: the recording already exists
// at the provider, so the caller is always thanked. Store failures are alerted.
func (d *Dispatcher) HandleVoicemailEvent(ctx context.Context, callID, recordingURL string) (string, error) {
	log := logger.From(ctx)

	doc, renderErr := d.renderer.VoicemailThanks()

	vm := calls.VoicemailRecord{
		CallID:       callID,
		RecordingURL: recordingURL,
		Timestamp:    d.clock().UTC(),
	}

	sctx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	err := asPersistence("save voicemail", callID, d.store.SaveVoicemail(sctx, vm))
	cancel()
	if err != nil {
		d.metrics.RecordVoicemailPersistFailure()
		log.Error("voicemail not linked", "call_id", callID, "recording_url", recordingURL, "err", err)
		d.alert(ctx, func(ctx context.Context) error {
			return d.alerts.LogVoicemailLinkFailure(ctx, callID, recordingURL, err)
		})
		return doc, err
	}

	log.Info("voicemail linked", "call_id", callID)
	return doc, renderErr
}

// HandleVoicemailSkipped ends a voicemail turn with no recording. Nothing is
// stored; the call keeps a null voicemail in the feed.
func (d *Dispatcher) HandleVoicemailSkipped(ctx context.Context, callID string) (string, error) {
	logger.From(ctx).Info("caller left no recording", "call_id", callID)
	return d.renderer.VoicemailSkipped()
}

// InvalidEventResponse is the safe document returned for webhooks that could not be parsed.
func (d *Dispatcher) InvalidEventResponse() (string, error) {
	return d.renderer.Decision(d.engine.InvalidSelection(), "")
}

// HandleOutboundAnswer returns the document played when the bridge destination picks up.
func (d *Dispatcher) HandleOutboundAnswer() (string, error) {
	return d.renderer.BridgeAnnouncement()
}

// HandleOutboundStatus frees the bridge slot once the outbound leg has finished.
func (d *Dispatcher) HandleOutboundStatus(ctx context.Context, ev telephony.OutboundStatusForm) error {
	if !ev.Terminal() {
		return nil
	}
	if err := d.dialer.BridgeFinished(ctx, d.engine.BridgeNumber()); err != nil {
		logger.From(ctx).Error("bridge slot not released", "call_sid", ev.CallSid, "err", err)
		return err
	}
	return nil
}

func (d *Dispatcher) alert(ctx context.Context, fn func(context.Context) error) {
	if d.alerts == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.storeTimeout)
	defer cancel()
	if err := fn(actx); err != nil {
		logger.From(ctx).Warn("alert not recorded", "err", err)
	}
}

func asPersistence(op, callID string, err error) error {
	if err == nil || calls.IsPersistence(err) {
		return err
	}
	return &calls.PersistenceError{Op: op, CallID: callID, Err: err}
}
