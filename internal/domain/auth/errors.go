package auth

import (
	"errors"
	"fmt"
)

// AuthErrorCode classifies login failures.
type AuthErrorCode string

const (
	CodeInvalidCredentials AuthErrorCode = "invalid_credentials"
	CodeTimeout            AuthErrorCode = "timeout"
	CodeNoRole             AuthErrorCode = "no_role"
	CodeUnavailable        AuthErrorCode = "unavailable"
)

// AuthError is returned by login when the caller should be shown a message.
// Two AuthErrors match under errors.Is when their codes are equal.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Cause   error
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidCredentials  = &AuthError{Code: CodeInvalidCredentials, Message: "Invalid email or password."}
	ErrLoginTimeout        = &AuthError{Code: CodeTimeout, Message: "Login is taking longer than expected. Please try again."}
	ErrNoRole              = &AuthError{Code: CodeNoRole, Message: "Your account does not have access to this portal."}
	ErrProviderUnavailable = &AuthError{Code: CodeUnavailable, Message: "Sign-in is temporarily unavailable. Please try again."}
)

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	if e.Message != "" {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// Is matches any AuthError with the same code.
func (e *AuthError) Is(target error) bool {
	var t *AuthError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// UserMessage returns the text shown to the user for this error.
func (e *AuthError) UserMessage() string {
	if e.Code == CodeInvalidCredentials && e.Cause != nil {
		// Provider credential messages are surfaced verbatim.
		return e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return ErrProviderUnavailable.Message
}

// NewAuthError builds an AuthError for code, copying the sentinel's message.
func NewAuthError(code AuthErrorCode, cause error) *AuthError {
	msg := ErrProviderUnavailable.Message
	switch code {
	case CodeInvalidCredentials:
		msg = ErrInvalidCredentials.Message
	case CodeTimeout:
		msg = ErrLoginTimeout.Message
	case CodeNoRole:
		msg = ErrNoRole.Message
	case CodeUnavailable:
	}
	return &AuthError{Code: code, Message: msg, Cause: cause}
}

// ErrStoreUnavailable marks transport-level failures of a backing store.
// Directory adapters wrap it; the resolver turns it into a ResolutionError.
var ErrStoreUnavailable = errors.New("backing store unavailable")

// ResolutionError reports that a backing-store lookup failed at the transport level.
// It is never cached as a negative result.
type ResolutionError struct {
	Store string
	Cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve identity: %s lookup: %v", e.Store, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// IsResolutionError reports whether err is (or wraps) a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
