package generator

import "fmt"

// TransportError wraps a failure of the external text generation service.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("text generation failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response without a usable question object.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse generated question: %s: %v", e.Reason, e.Err)
	}
	return "parse generated question: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// GenerationError is returned once the retry budget is spent; it carries the last failure.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("no question generated after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
