package reporting

import (
	"context"
	"errors"
	"fmt"

	"ivr-service/internal/calls"
)

// ErrFeedUnavailable is returned when the call list itself cannot be read.
var ErrFeedUnavailable = errors.New("reporting: activity feed unavailable")

// Service assembles the activity feed from the call store.
//
// IMPORTANT:
// - Read-only. Nothing here writes to the store.
// - Entries follow the store's insertion order; no re-sorting.
type Service struct {
	store  calls.Store
	linker *Linker
}

func NewService(store calls.Store) *Service {
	return &Service{store: store, linker: NewLinker(store)}
}

// Assemble returns every call joined with its voicemail URL.
// Only a failure to list calls fails the feed; voicemail lookups degrade per entry.
func (s *Service) Assemble(ctx context.Context) ([]ActivityEntry, error) {
	if s.store == nil {
		return nil, errors.New("reporting: store not configured")
	}

	recs, err := s.store.ListCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}

	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.CallID)
	}
	urls := s.linker.LinkAll(ctx, ids)

	out := make([]ActivityEntry, 0, len(recs))
	for _, r := range recs {
		e := ActivityEntry{
			CallID:         r.CallID,
			FromNumber:     r.FromNumber,
			SelectedOption: r.SelectedOption,
			Timestamp:      r.Timestamp,
			Redirected:     r.Redirected,
		}
		if u, ok := urls[r.CallID]; ok {
			e.Voicemail = &u
		}
		out = append(out, e)
	}
	return out, nil
}
