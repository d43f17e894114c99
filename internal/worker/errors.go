// internal/worker/errors.go
package worker

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned by actions that observe a cancellation request.
// The worker maps it to the terminal "cancelled by user" outcome.
var ErrCancelled = errors.New("cancelled by user")

// AuthError indicates the login flow completed but the site rejected the
// credentials. Never retried.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// NewAuthError builds the standard rejected-login error. The site gives no
// machine-readable reason, so the message is fixed.
func NewAuthError() *AuthError {
	return &AuthError{Reason: "invalid credentials or login rejected"}
}

// NotFoundError indicates a referenced resource (an article, a post) does
// not exist on the site.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Resource)
}

// TransientError wraps a failure of a single step inside a larger loop.
// Loops log these and continue; they never terminate a run on their own.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
