package telephony

import (
	"errors"
	"net/url"
	"strings"

	"ivr-service/internal/routing"

	"github.com/twilio/twilio-go/twiml"
)

// ContentTypeTwiML is the content type of every voice-response document.
const ContentTypeTwiML = "text/xml"

const (
	PathVoicemailComplete = "/recorded-voicemail"
	PathOutboundVoice     = "/outbound-voice"
	PathOutboundStatus    = "/outbound-status"
)

const (
	defaultVoicemailThanks  = "Thank you for leaving a voicemail."
	defaultVoicemailSkipped = "Goodbye."
	defaultBridgeAnnounce   = "Connecting you to a caller from the phone menu."
	defaultRecordMaxSeconds = "120"
)

// Renderer turns routing decisions into TwiML.
//
// BaseURL is the public origin the provider uses to reach this service. When
// empty, callback URLs are relative and the provider resolves them against the
// URL of the webhook that returned the document.
type Renderer struct {
	BaseURL string
}

func (r Renderer) url(path string) string {
	return strings.TrimRight(r.BaseURL, "/") + path
}

// VoicemailCompleteURL is where the provider posts the finished recording for callID.
func (r Renderer) VoicemailCompleteURL(callID string) string {
	return r.url(PathVoicemailComplete) + "?CallId=" + url.QueryEscape(callID)
}

// VoicemailSkippedURL is the redirect target reached when Record captured nothing.
// The provider does not call the Record action for an empty recording.
func (r Renderer) VoicemailSkippedURL(callID string) string {
	return r.VoicemailCompleteURL(callID) + "&" + ParamNoRecording + "=1"
}

func (r Renderer) OutboundVoiceURL() string  { return r.url(PathOutboundVoice) }
func (r Renderer) OutboundStatusURL() string { return r.url(PathOutboundStatus) }

// Decision maps a routing decision for callID to TwiML.
func (r Renderer) Decision(d routing.Decision, callID string) (string, error) {
	var verbs []twiml.Element

	switch d.Action {
	case routing.ActionBridge:
		if strings.TrimSpace(d.TargetNumber) == "" {
			return "", errors.New("telephony: target number required for bridge")
		}
		verbs = append(verbs, &twiml.VoiceDial{
			CallerId: d.CallerIDNumber,
			Number:   d.TargetNumber,
		})
	case routing.ActionRecordVoicemail:
		if callID == "" {
			return "", errors.New("telephony: call id required for voicemail")
		}
		verbs = append(verbs,
			&twiml.VoiceSay{Message: d.Prompt},
			&twiml.VoiceRecord{
				Action:    r.VoicemailCompleteURL(callID),
				Method:    "POST",
				MaxLength: defaultRecordMaxSeconds,
				PlayBeep:  "true",
			},
			&twiml.VoiceSay{Message: d.FallbackPrompt},
			&twiml.VoiceRedirect{Url: r.VoicemailSkippedURL(callID), Method: "POST"},
		)
	case routing.ActionInvalidSelection:
		verbs = append(verbs, &twiml.VoiceSay{Message: d.Message})
	default:
		return "", errors.New("telephony: unknown decision action")
	}

	return twiml.Voice(verbs)
}

// Say renders a document that speaks message and ends.
func (r Renderer) Say(message string) (string, error) {
	return twiml.Voice([]twiml.Element{&twiml.VoiceSay{Message: message}})
}

// VoicemailThanks renders the acknowledgment returned after a recording completes.
func (r Renderer) VoicemailThanks() (string, error) {
	return r.Say(defaultVoicemailThanks)
}

// VoicemailSkipped ends a voicemail turn in which the caller recorded nothing.
func (r Renderer) VoicemailSkipped() (string, error) {
	return r.Say(defaultVoicemailSkipped)
}

// BridgeAnnouncement renders the document played to the bridge destination when it answers.
func (r Renderer) BridgeAnnouncement() (string, error) {
	return r.Say(defaultBridgeAnnounce)
}
