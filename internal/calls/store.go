package calls

import "context"

// Store persists call and voicemail records keyed by call id.
//
// Rules:
// - Calls and voicemails are written independently; they are joined only at read time.
// - Both collections are insert-only. There are no Update/Delete methods.
// - SaveVoicemail must reject a second voicemail for the same call (ErrDuplicateVoicemail)
//   and a voicemail for a call that does not exist (ErrUnknownCall).
// - Every returned error is a *PersistenceError.
type Store interface {
	SaveCall(ctx context.Context, rec CallRecord) error
	SaveVoicemail(ctx context.Context, vm VoicemailRecord) error

	// ListCalls returns calls in insertion order.
	ListCalls(ctx context.Context) ([]CallRecord, error)

	// FindVoicemail returns (VoicemailRecord{}, false, nil) when none exists.
	FindVoicemail(ctx context.Context, callID string) (VoicemailRecord, bool, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// BatchFinder is implemented by stores that can resolve many voicemails in one query.
// The result map only contains call ids that have a voicemail.
type BatchFinder interface {
	FindVoicemails(ctx context.Context, callIDs []string) (map[string]VoicemailRecord, error)
}
