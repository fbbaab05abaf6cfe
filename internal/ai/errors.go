package ai

import (
	"errors"
	"fmt"
)

// ErrCompletionFailed matches every completion failure, whatever its cause.
var ErrCompletionFailed = errors.New("completion failed")

// TransportError covers network failures (StatusCode 0) and non-2xx replies.
type TransportError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
	}
	switch {
	case e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrCompletionFailed }

// EmptyResponseError is a well-formed reply that carries no choices.
type EmptyResponseError struct {
	Provider string
}

func (e *EmptyResponseError) Error() string {
	return e.Provider + ": empty response"
}

func (e *EmptyResponseError) Is(target error) bool { return target == ErrCompletionFailed }

// ResponseDecodeError keeps the raw reply that could not be decoded.
type ResponseDecodeError struct {
	Shape string
	Raw   string
	Err   error
}

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Shape, e.Err)
}

func (e *ResponseDecodeError) Unwrap() error { return e.Err }
