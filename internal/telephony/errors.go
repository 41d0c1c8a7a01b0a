package telephony

import (
	"errors"
	"fmt"
)

// ErrBridgeBusy is returned when the bridge destination already has the maximum
// number of concurrent bridge calls ringing.
var ErrBridgeBusy = errors.New("telephony: bridge destination busy")

// ValidationError reports a malformed inbound webhook payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "telephony: invalid webhook: " + e.Reason
	}
	return fmt.Sprintf("telephony: invalid webhook field %s: %s", e.Field, e.Reason)
}

// SideEffectError reports a failed or timed-out call to the provider.
type SideEffectError struct {
	Op  string
	Err error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("telephony: %s: %v", e.Op, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsSideEffect(err error) bool {
	var se *SideEffectError
	return errors.As(err, &se)
}
