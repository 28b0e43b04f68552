// Package apperr defines the failure taxonomy shared by the gateway and its
// HTTP transport. Each failure carries a machine-readable code, the message
// shown to callers, and the underlying cause (which is logged, never shown).
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind.
type Code string

// Client errors
const (
	// CodeMissingField indicates a required request field is absent or empty.
	CodeMissingField Code = "MISSING_FIELD"
	// CodePayloadTooLarge indicates the request body exceeded the upload limit.
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
)

// Server errors
const (
	// CodeTranscriptionFailed indicates the transcription engine failed.
	CodeTranscriptionFailed Code = "TRANSCRIPTION_FAILED"
	// CodeTranslationFailed indicates the translation engine failed.
	CodeTranslationFailed Code = "TRANSLATION_FAILED"
	// CodeSimilarityFailed indicates the similarity engine failed.
	CodeSimilarityFailed Code = "SIMILARITY_FAILED"
	// CodeUnexpected indicates a runtime fault outside any engine.
	CodeUnexpected Code = "UNEXPECTED_FAILURE"
)

// IsClientError reports whether the code describes a malformed request.
func (c Code) IsClientError() bool {
	return c == CodeMissingField || c == CodePayloadTooLarge
}

// Error is the failure record returned by gateway operations.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause sets the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// MissingField reports an incomplete request.
func MissingField(message string) *Error {
	return New(CodeMissingField, message)
}

// PayloadTooLarge reports an upload over the configured limit.
func PayloadTooLarge(limit int64) *Error {
	return New(CodePayloadTooLarge, fmt.Sprintf("Request body exceeds the %d byte limit", limit))
}

// TranscriptionFailed wraps a transcription engine fault.
func TranscriptionFailed(cause error) *Error {
	return New(CodeTranscriptionFailed, "Failed to transcribe audio").WithCause(cause)
}

// TranslationFailed wraps a translation engine fault.
func TranslationFailed(cause error) *Error {
	return New(CodeTranslationFailed, "Translation failed").WithCause(cause)
}

// SimilarityFailed wraps a similarity engine fault.
func SimilarityFailed(cause error) *Error {
	return New(CodeSimilarityFailed, "Failed to calculate similarity").WithCause(cause)
}

// Unexpected wraps any other fault.
func Unexpected(cause error) *Error {
	return New(CodeUnexpected, "An unexpected error occurred").WithCause(cause)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// From returns err as an *Error, wrapping anything unknown as Unexpected.
func From(err error) *Error {
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Unexpected(err)
}
