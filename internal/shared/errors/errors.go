// Package errors defines the error taxonomy shared by the orchestration
// layer. Every failure a factory or provider can surface maps onto one of
// the kinds below so callers have a single error-handling path per
// operation instead of one path per provider.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrNotConfigured  = errors.New("provider not configured")
	ErrNotImplemented = errors.New("provider not implemented")
	ErrValidation     = errors.New("validation failed")
	ErrProvider       = errors.New("provider request failed")
	ErrTimeout        = errors.New("timed out waiting for job")
	ErrResource       = errors.New("resource acquisition failed")
	ErrEmptyResult    = errors.New("provider reported success with no output")
)

// Kind classifies an orchestration error.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindValidation     Kind = "validation"
	KindNotImplemented Kind = "not_implemented"
	KindProvider       Kind = "provider"
	KindTimeout        Kind = "timeout"
	KindResource       Kind = "resource"
)

// Error is a structured orchestration error. Provider carries the
// identifier of the provider involved, when one is known.
type Error struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotConfigured reports that a provider was invoked without a stored
// credential. The message names the provider and implies the remedy.
func NotConfigured(provider, displayName string) *Error {
	return &Error{
		Kind:     KindConfiguration,
		Message:  fmt.Sprintf("%s is not configured; add an API key in settings before generating", displayName),
		Provider: provider,
		Err:      ErrNotConfigured,
	}
}

// NotImplemented reports that a registered-but-stub provider was invoked.
func NotImplemented(provider, displayName string) *Error {
	return &Error{
		Kind:     KindNotImplemented,
		Message:  fmt.Sprintf("%s is not available yet", displayName),
		Provider: provider,
		Err:      ErrNotImplemented,
	}
}

// Validation reports a credential or import blob that failed shape checking.
func Validation(message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Err:     ErrValidation,
	}
}

// Provider wraps a failure reported by (or while talking to) a provider.
// An empty message falls back to a generic one so callers never see a raw
// transport error as the sole signal.
func Provider(provider, message string, err error) *Error {
	if message == "" {
		message = "generation failed, please try again"
	}
	return &Error{
		Kind:     KindProvider,
		Message:  message,
		Provider: provider,
		Err:      errors.Join(ErrProvider, err),
	}
}

// Timeout reports an exhausted poll budget. Distinct from a
// provider-reported failure: the provider never said no, we gave up waiting.
func Timeout(provider string, attempts int) *Error {
	return &Error{
		Kind:     KindTimeout,
		Message:  fmt.Sprintf("job did not finish after %d status checks", attempts),
		Provider: provider,
		Err:      ErrTimeout,
	}
}

// Resource reports a hardware acquisition failure (e.g. microphone).
func Resource(message string, err error) *Error {
	return &Error{
		Kind:    KindResource,
		Message: message,
		Err:     errors.Join(ErrResource, err),
	}
}

// KindOf returns the kind of err, or an empty Kind for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ProviderOf returns the provider identifier attached to err, if any.
func ProviderOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Provider
	}
	return ""
}
