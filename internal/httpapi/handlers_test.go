package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ivr-service/internal/calls"
	"ivr-service/internal/ivr"
	"ivr-service/internal/reporting"
	"ivr-service/internal/routing"
	"ivr-service/internal/telephony"

	"github.com/gin-gonic/gin"
)

type stubDialer struct {
	placed   int
	finished int
}

func (d *stubDialer) PlaceBridgeCall(ctx context.Context, req telephony.BridgeCallRequest) (string, error) {
	d.placed++
	return "CA-out", nil
}

func (d *stubDialer) BridgeFinished(ctx context.Context, destination string) error {
	d.finished++
	return nil
}

// brokenStore fails every operation as if the database were down.
type brokenStore struct{}

var errDown = &calls.PersistenceError{Op: "dial", Err: calls.ErrStoreUnavailable}

func (brokenStore) SaveCall(ctx context.Context, rec calls.CallRecord) error { return errDown }
func (brokenStore) SaveVoicemail(ctx context.Context, vm calls.VoicemailRecord) error { return errDown }
func (brokenStore) ListCalls(ctx context.Context) ([]calls.CallRecord, error) { return nil, errDown }
func (brokenStore) FindVoicemail(ctx context.Context, id string) (calls.VoicemailRecord, bool, error) {
	return calls.VoicemailRecord{}, false, errDown
}
func (brokenStore) Ping(ctx context.Context) error  { return errDown }
func (brokenStore) Close(ctx context.Context) error { return nil }

func newRouter(t *testing.T, store calls.Store) (*gin.Engine, *stubDialer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine, err := routing.NewEngine(routing.EngineConfig{BridgeNumber: "+15550009999", CallerIDNumber: "+15177934989"})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	dialer := &stubDialer{}
	d, err := ivr.NewDispatcher(ivr.Deps{
		Engine:   engine,
		Store:    store,
		Dialer:   dialer,
		Renderer: telephony.Renderer{BaseURL: "https://ivr.example.com"},
	})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}

	h := Handlers{Dispatcher: d, Feed: reporting.NewService(store), Store: store}
	r := gin.New()
	r.POST("/voice", h.Voice)
	r.POST("/recorded-voicemail", h.RecordedVoicemail)
	r.POST("/outbound-voice", h.OutboundVoice)
	r.POST("/outbound-status", h.OutboundStatus)
	r.GET("/activity-feed", h.ActivityFeed)
	r.GET("/healthz", h.Healthz)
	return r, dialer
}

func postForm(r http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func getFeed(t *testing.T, r http.Handler) []reporting.ActivityEntry {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activity-feed", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("feed: expected 200, got %d", w.Code)
	}
	var out []reporting.ActivityEntry
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("feed json: %v", err)
	}
	return out
}

func TestVoice_BridgeSelection(t *testing.T) {
	r, dialer := newRouter(t, calls.NewMemoryStore())

	w := postForm(r, "/voice", url.Values{"Digits": {"1"}, "From": {"+15550001111"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Fatalf("expected text/xml, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<Dial") {
		t.Fatalf("expected dial, got %s", w.Body.String())
	}
	if dialer.placed != 1 {
		t.Fatalf("expected one bridge call")
	}

	feed := getFeed(t, r)
	if len(feed) != 1 || !feed[0].Redirected || feed[0].FromNumber != "+15550001111" || feed[0].Voicemail != nil {
		t.Fatalf("unexpected feed: %+v", feed)
	}
}

func TestVoicemailRoundTrip(t *testing.T) {
	store := calls.NewMemoryStore()
	r, dialer := newRouter(t, store)

	w := postForm(r, "/voice", url.Values{"Digits": {"2"}, "From": {"+15550002222"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Record") {
		t.Fatalf("expected record instruction, got %d %s", w.Code, w.Body.String())
	}
	if dialer.placed != 0 {
		t.Fatalf("voicemail must not bridge")
	}

	recs, _ := store.ListCalls(context.Background())
	if len(recs) != 1 || !recs[0].VoicemailPending {
		t.Fatalf("expected pending voicemail record, got %+v", recs)
	}
	callID := recs[0].CallID

	w = postForm(r, "/recorded-voicemail?CallId="+url.QueryEscape(callID), url.Values{"RecordingUrl": {"https://api.twilio.com/r1.wav"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Thank you for leaving a voicemail.") {
		t.Fatalf("expected thanks, got %d %s", w.Code, w.Body.String())
	}

	feed := getFeed(t, r)
	if len(feed) != 1 || feed[0].CallID != callID || feed[0].Voicemail == nil || *feed[0].Voicemail != "https://api.twilio.com/r1.wav" {
		t.Fatalf("expected linked voicemail, got %+v", feed)
	}
}

func TestRecordedVoicemail_NothingRecordedSaysGoodbye(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newRouter(t, store)

	w := postForm(r, "/voice", url.Values{"Digits": {"2"}, "From": {"+15550002222"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	recs, _ := store.ListCalls(context.Background())
	callID := recs[0].CallID

	// The fallback redirect the provider follows after an empty recording.
	redirect := telephony.Renderer{}.VoicemailSkippedURL(callID)
	w = postForm(r, redirect, url.Values{"CallSid": {"CA1"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Goodbye.") {
		t.Fatalf("expected goodbye, got %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "Invalid selection") {
		t.Fatalf("empty recording must not be treated as invalid input: %s", w.Body.String())
	}

	feed := getFeed(t, r)
	if len(feed) != 1 || feed[0].Voicemail != nil {
		t.Fatalf("expected call without voicemail, got %+v", feed)
	}
}

func TestVoice_InvalidSelection(t *testing.T) {
	r, dialer := newRouter(t, calls.NewMemoryStore())

	w := postForm(r, "/voice", url.Values{"Digits": {"9"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Invalid selection") {
		t.Fatalf("expected invalid selection, got %d %s", w.Code, w.Body.String())
	}
	if dialer.placed != 0 {
		t.Fatalf("no bridge expected")
	}

	feed := getFeed(t, r)
	if len(feed) != 1 || feed[0].SelectedOption == nil || *feed[0].SelectedOption != "9" || feed[0].Redirected {
		t.Fatalf("unexpected feed: %+v", feed)
	}
}

func TestRecordedVoicemail_UnknownCallStillAcknowledged(t *testing.T) {
	r, _ := newRouter(t, calls.NewMemoryStore())

	w := postForm(r, "/recorded-voicemail", url.Values{"CallId": {"never-seen"}, "RecordingUrl": {"https://api.twilio.com/r2.wav"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Thank you") {
		t.Fatalf("expected acknowledgment, got %d %s", w.Code, w.Body.String())
	}
	if feed := getFeed(t, r); len(feed) != 0 {
		t.Fatalf("unknown call must not appear in feed: %+v", feed)
	}
}

func TestRecordedVoicemail_MissingFieldsGetSafeResponse(t *testing.T) {
	r, _ := newRouter(t, calls.NewMemoryStore())

	w := postForm(r, "/recorded-voicemail", url.Values{"CallId": {"c1"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Invalid selection") {
		t.Fatalf("expected safe response, got %d %s", w.Code, w.Body.String())
	}
}

func TestVoice_StoreDownSignalsError(t *testing.T) {
	r, _ := newRouter(t, brokenStore{})

	for _, digits := range []string{"1", "2"} {
		w := postForm(r, "/voice", url.Values{"Digits": {digits}, "From": {"+15550001111"}})
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("digits %s: expected 500, got %d", digits, w.Code)
		}
		if strings.Contains(w.Body.String(), "<Response>") {
			t.Fatalf("digits %s: twiml must not be sent on store failure", digits)
		}
	}
}

func TestActivityFeed_StoreDownIsUnavailable(t *testing.T) {
	r, _ := newRouter(t, brokenStore{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activity-feed", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestActivityFeed_EmptyIsArray(t *testing.T) {
	r, _ := newRouter(t, calls.NewMemoryStore())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activity-feed", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", w.Body.String())
	}
}

func TestOutboundLeg(t *testing.T) {
	r, dialer := newRouter(t, calls.NewMemoryStore())

	w := postForm(r, "/outbound-voice", url.Values{"CallSid": {"CA-out"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Say") {
		t.Fatalf("expected announcement, got %d %s", w.Code, w.Body.String())
	}

	w = postForm(r, "/outbound-status", url.Values{"CallSid": {"CA-out"}, "CallStatus": {"completed"}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if dialer.finished != 1 {
		t.Fatalf("expected bridge slot released")
	}

	w = postForm(r, "/outbound-status", url.Values{"CallSid": {"CA-out"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without CallStatus, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	r, _ := newRouter(t, calls.NewMemoryStore())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	r, _ = newRouter(t, brokenStore{})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
