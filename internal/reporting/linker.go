package reporting

import (
	"context"
	"errors"

	"ivr-service/internal/calls"
	"ivr-service/pkg/logger"
)

// Linker resolves the voicemail recorded for a call. It only reads.
type Linker struct {
	store calls.Store
}

func NewLinker(store calls.Store) *Linker { return &Linker{store: store} }

// Link returns the voicemail for callID; ok is false when none exists.
func (l *Linker) Link(ctx context.Context, callID string) (calls.VoicemailRecord, bool, error) {
	if l.store == nil {
		return calls.VoicemailRecord{}, false, errors.New("reporting: store not configured")
	}
	return l.store.FindVoicemail(ctx, callID)
}

// LinkAll resolves recording URLs for callIDs. The result only holds calls
// with a voicemail.
//
// When the store can batch, one query is tried first; if it fails every call
// is looked up on its own. A failed single lookup leaves that call out of the
// result and never fails the whole set.
func (l *Linker) LinkAll(ctx context.Context, callIDs []string) map[string]string {
	out := make(map[string]string, len(callIDs))
	if len(callIDs) == 0 {
		return out
	}
	log := logger.From(ctx)

	if bf, ok := l.store.(calls.BatchFinder); ok {
		found, err := bf.FindVoicemails(ctx, callIDs)
		if err == nil {
			for id, vm := range found {
				out[id] = vm.RecordingURL
			}
			return out
		}
		log.Warn("batched voicemail lookup failed, falling back", "calls", len(callIDs), "err", err)
	}

	for _, id := range callIDs {
		vm, ok, err := l.Link(ctx, id)
		if err != nil {
			log.Warn("voicemail lookup failed", "call_id", id, "err", err)
			continue
		}
		if ok {
			out[id] = vm.RecordingURL
		}
	}
	return out
}
