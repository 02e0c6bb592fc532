package session

import (
	"errors"
	"fmt"
)

// ErrorKind classifies session failures so callers branch on meaning
// instead of on HTTP status codes.
type ErrorKind int

const (
	// KindUnknown marks errors that did not originate in this package.
	KindUnknown ErrorKind = iota
	// KindInvalidCredentials means the username/password pair was rejected.
	// User-correctable; show an inline message.
	KindInvalidCredentials
	// KindSessionExpired means the stored or implicit session is no longer
	// valid. The local artifact has already been cleared; force a re-login.
	KindSessionExpired
	// KindServiceUnavailable covers network failures and 5xx responses.
	// Retryable at the caller's discretion; this layer never retries.
	KindServiceUnavailable
	// KindEnvironmentUnsupported means the process has no runtime support
	// for session operations. Internal only: operations degrade to "no
	// user" and this kind is never surfaced to the end user.
	KindEnvironmentUnsupported
)

// AuthError is the typed failure returned by Login and FetchCurrentUser.
type AuthError struct {
	Kind   ErrorKind
	Status int // HTTP status when the failure came from a response, else 0
	cause  error
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case KindInvalidCredentials:
		return "invalid username or password"
	case KindSessionExpired:
		return "session expired, please log in again"
	case KindServiceUnavailable:
		if e.cause != nil {
			return fmt.Sprintf("identity service unavailable: %v", e.cause)
		}
		return fmt.Sprintf("identity service unavailable (status %d)", e.Status)
	case KindEnvironmentUnsupported:
		return "session operations are not supported in this environment"
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return "authentication error"
}

func (e *AuthError) Unwrap() error { return e.cause }

// KindOf extracts the ErrorKind from an error chain.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
