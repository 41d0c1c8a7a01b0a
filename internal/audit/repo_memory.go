package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps alerts in process, trimmed to the newest maxLen entries
// the same way the Redis stream is capped.
type MemoryRepo struct {
	mu     sync.Mutex
	maxLen int
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return NewBoundedMemoryRepo(defaultStreamMaxLen) }

// NewBoundedMemoryRepo keeps at most maxLen events. maxLen <= 0 means unbounded.
func NewBoundedMemoryRepo(maxLen int) *MemoryRepo { return &MemoryRepo{maxLen: maxLen} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.maxLen > 0 && len(r.events) > r.maxLen {
		r.events = append(r.events[:0:0], r.events[len(r.events)-r.maxLen:]...)
	}
	return nil
}

// Events returns a copy, oldest first.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ForCall returns the alerts raised for one call, oldest first.
func (r *MemoryRepo) ForCall(callID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.CallID == callID {
			out = append(out, e)
		}
	}
	return out
}
