package calls

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local development.
// It enforces the same uniqueness rules as the database-backed stores.
type MemoryStore struct {
	mu sync.Mutex

	calls      []CallRecord
	callIdx    map[string]int
	voicemails map[string]VoicemailRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{callIdx: map[string]int{}, voicemails: map[string]VoicemailRecord{}}
}

func (s *MemoryStore) SaveCall(ctx context.Context, rec CallRecord) error {
	if rec.CallID == "" {
		return persistErr("save call", "", errors.New("call id required"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callIdx[rec.CallID]; ok {
		return persistErr("save call", rec.CallID, errors.New("duplicate call id"))
	}
	s.callIdx[rec.CallID] = len(s.calls)
	s.calls = append(s.calls, rec)
	return nil
}

func (s *MemoryStore) SaveVoicemail(ctx context.Context, vm VoicemailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callIdx[vm.CallID]; !ok {
		return persistErr("save voicemail", vm.CallID, ErrUnknownCall)
	}
	if _, ok := s.voicemails[vm.CallID]; ok {
		return persistErr("save voicemail", vm.CallID, ErrDuplicateVoicemail)
	}
	s.voicemails[vm.CallID] = vm
	return nil
}

func (s *MemoryStore) ListCalls(ctx context.Context) ([]CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CallRecord, len(s.calls))
	copy(out, s.calls)
	return out, nil
}

func (s *MemoryStore) FindVoicemail(ctx context.Context, callID string) (VoicemailRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vm, ok := s.voicemails[callID]
	return vm, ok, nil
}

func (s *MemoryStore) FindVoicemails(ctx context.Context, callIDs []string) (map[string]VoicemailRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]VoicemailRecord, len(callIDs))
	for _, id := range callIDs {
		if vm, ok := s.voicemails[id]; ok {
			out[id] = vm
		}
	}
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }
