package calls

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateVoicemail is returned when a voicemail already exists for the call.
	ErrDuplicateVoicemail = errors.New("calls: voicemail already recorded for call")
	// ErrUnknownCall is returned when a voicemail references a call that was never stored.
	ErrUnknownCall = errors.New("calls: unknown call id")
	// ErrStoreUnavailable marks failures where the backing store could not be reached at all.
	ErrStoreUnavailable = errors.New("calls: store unavailable")
)

// PersistenceError wraps every failure coming out of a Store.
type PersistenceError struct {
	Op     string
	CallID string
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.CallID == "" {
		return fmt.Sprintf("calls: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("calls: %s %s: %v", e.Op, e.CallID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op, callID string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, CallID: callID, Err: err}
}

// IsPersistence reports whether err came from a Store.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
