package calls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_ListCallsKeepsInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	for _, id := range []string{"c3", "c1", "c2"} {
		if err := s.SaveCall(ctx, CallRecord{CallID: id, Timestamp: now}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	got, err := s.ListCalls(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].CallID != "c3" || got[1].CallID != "c1" || got[2].CallID != "c2" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestMemoryStore_RejectsDuplicateCallID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.SaveCall(ctx, CallRecord{CallID: "c1"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := s.SaveCall(ctx, CallRecord{CallID: "c1"})
	if !IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestMemoryStore_VoicemailRequiresKnownCall(t *testing.T) {
	s := NewMemoryStore()
	err := s.SaveVoicemail(context.Background(), VoicemailRecord{CallID: "missing", RecordingURL: "https://example.com/r.wav"})
	if !errors.Is(err, ErrUnknownCall) {
		t.Fatalf("expected ErrUnknownCall, got %v", err)
	}
	if !IsPersistence(err) {
		t.Fatalf("expected *PersistenceError, got %T", err)
	}
	if _, ok, _ := s.FindVoicemail(context.Background(), "missing"); ok {
		t.Fatalf("rejected voicemail must not be findable")
	}
}

func TestMemoryStore_ConcurrentDuplicateVoicemailsOnlyOneWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.SaveCall(ctx, CallRecord{CallID: "c1"}); err != nil {
		t.Fatalf("save call: %v", err)
	}

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.SaveVoicemail(ctx, VoicemailRecord{CallID: "c1", RecordingURL: "https://example.com/r.wav"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case errors.Is(err, ErrDuplicateVoicemail):
				dups++
			}
		}()
	}
	wg.Wait()
	if oks != 1 || dups != n-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d/%d", n-1, oks, dups)
	}
}

func TestMemoryStore_FindVoicemailsOnlyReturnsExisting(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.SaveCall(ctx, CallRecord{CallID: "a"})
	_ = s.SaveCall(ctx, CallRecord{CallID: "b"})
	if err := s.SaveVoicemail(ctx, VoicemailRecord{CallID: "b", RecordingURL: "u"}); err != nil {
		t.Fatalf("save voicemail: %v", err)
	}

	got, err := s.FindVoicemails(ctx, []string{"a", "b", "zzz"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got["b"].RecordingURL != "u" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCallRecord_Option(t *testing.T) {
	if (CallRecord{}).Option() != "" {
		t.Fatalf("expected empty option")
	}
	if (CallRecord{SelectedOption: StringPtr("2")}).Option() != "2" {
		t.Fatalf("expected option 2")
	}
	if StringPtr("") != nil {
		t.Fatalf("expected nil for empty string")
	}
}
