package sentiment

import (
	"errors"
	"fmt"
)

// ErrBothProvidersUnavailable is matched with errors.Is when the cascade has
// exhausted both providers without producing a usable result.
var ErrBothProvidersUnavailable = errors.New("both sentiment providers unavailable")

// TransportError covers network failures, timeouts and retryable upstream
// statuses (5xx, 429). These are the only errors the retry wrapper replays.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError covers malformed upstream payloads. Never retried; carries
// the offending raw payload for diagnosis.
type ValidationError struct {
	Provider   string
	RawPayload string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid upstream response: %v", e.Provider, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// CascadeError is the terminal failure of the cascade: both providers failed
// and the specialized provider never produced even a low-confidence result.
// Unwrap yields the general provider's error since it was the last attempt.
type CascadeError struct {
	SpecializedErr error
	GeneralErr     error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("both sentiment providers unavailable: specialized: %v; general: %v",
		e.SpecializedErr, e.GeneralErr)
}

func (e *CascadeError) Unwrap() error { return e.GeneralErr }

func (e *CascadeError) Is(target error) bool { return target == ErrBothProvidersUnavailable }
