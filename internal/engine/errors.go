package engine

import (
	"errors"
	"fmt"
)

// GenerationErrorKind classifies a failed story generation
type GenerationErrorKind int

const (
	// GenerationBlocked means the service answered without usable text,
	// typically because a safety filter suppressed the response
	GenerationBlocked GenerationErrorKind = iota + 1
	// GenerationRequestFailed means the request itself failed
	// (network, auth, quota)
	GenerationRequestFailed
)

const blockedMessage = "Error: The AI response was blocked for safety reasons. Please try different images."

// GenerationError is returned by story generators in place of text
type GenerationError struct {
	Kind   GenerationErrorKind
	Reason string // finish or block reason reported by the service, if any
	Err    error
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case GenerationBlocked:
		return blockedMessage
	default:
		return fmt.Sprintf("Error: Failed to generate story. Details: %v", e.Err)
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsBlocked reports whether err is a GenerationError of kind GenerationBlocked
func IsBlocked(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == GenerationBlocked
}

func blockedError(reason string) *GenerationError {
	return &GenerationError{Kind: GenerationBlocked, Reason: reason}
}

func requestError(err error) *GenerationError {
	return &GenerationError{Kind: GenerationRequestFailed, Err: err}
}
