package didkit

import "errors"

var (
	// ErrNoProvider is returned by operations that need a bound provider
	// connection when none exists.
	ErrNoProvider = errors.New("didkit: no provider bound")

	// ErrProviderConflict is returned when binding a provider while a
	// different connection is already bound.
	ErrProviderConflict = errors.New("didkit: a different provider is already bound")

	// ErrNotAuthenticated is returned by operations that need an established
	// identity when none exists.
	ErrNotAuthenticated = errors.New("didkit: not authenticated")

	// ErrInvalidAuthResponse is the sentinel wrapped by AuthError.
	ErrInvalidAuthResponse = errors.New("didkit: invalid authentication response")

	// ErrMissingKid is returned when a signed envelope's header carries no
	// key identifier.
	ErrMissingKid = errors.New("didkit: signed envelope header carries no kid")

	// ErrVerificationFailed wraps signature verification failures.
	ErrVerificationFailed = errors.New("didkit: signature verification failed")
)

// AuthError reports which check an authentication response failed. It
// matches ErrInvalidAuthResponse under errors.Is.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "didkit: invalid authentication response: " + e.Reason
}

func (e *AuthError) Unwrap() error { return ErrInvalidAuthResponse }
