package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for alert events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records operational alerts for failures that would otherwise be
// invisible in the activity feed.
//
// Callers should treat alerting as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.CallID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogBridgeFailure records a bridge call that could not be placed for callID.
func (s *Service) LogBridgeFailure(ctx context.Context, callID, destination string, cause error) error {
	return s.Append(ctx, Event{
		Type:     EventTypeBridgeFailed,
		CallID:   callID,
		Message:  errMessage("bridge call failed", cause),
		Metadata: metadata("destination", destination),
	})
}

// LogVoicemailLinkFailure records a recording that was not stored against callID.
// The recording URL is kept so the voicemail can be recovered by hand.
func (s *Service) LogVoicemailLinkFailure(ctx context.Context, callID, recordingURL string, cause error) error {
	return s.Append(ctx, Event{
		Type:     EventTypeVoicemailLinkFailed,
		CallID:   callID,
		Message:  errMessage("voicemail not linked", cause),
		Metadata: metadata("recording_url", recordingURL),
	})
}

func errMessage(prefix string, err error) string {
	if err == nil {
		return prefix
	}
	return prefix + ": " + err.Error()
}

func metadata(key, value string) string {
	b, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return ""
	}
	return string(b)
}
