package relate

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures. The kind is fixed at the point the
// error is constructed, so callers discriminate by tag instead of inspecting
// error chains.
type ErrorKind int

const (
	// KindInvalidInput marks a malformed or empty corpus/tag index. The
	// engines return an empty result for these; the error exists for
	// structured logging only.
	KindInvalidInput ErrorKind = iota
	// KindProcessing marks an unexpected failure inside matrix or vector
	// construction. The affected phase returns an empty result.
	KindProcessing
	// KindInitialization marks a tokenizer/dictionary load failure. Fatal
	// to the whole similarity run.
	KindInitialization
	// KindDocumentTimeout marks a single document's tokenization timeout.
	// Soft: the document contributes empty tokens and the batch continues.
	KindDocumentTimeout
)

// String returns the kind's log label.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindProcessing:
		return "processing"
	case KindInitialization:
		return "initialization"
	case KindDocumentTimeout:
		return "document_timeout"
	default:
		return "unknown"
	}
}

// EngineError is a tagged engine failure carrying kind, message, and an
// optional cause.
type EngineError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the cause for errors.Is/As chains.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewError creates an EngineError without a cause.
func NewError(kind ErrorKind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// WrapError creates an EngineError wrapping cause.
func WrapError(kind ErrorKind, message string, cause error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the ErrorKind from err if it is (or wraps) an EngineError.
func KindOf(err error) (ErrorKind, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return 0, false
}
