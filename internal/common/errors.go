package common

import (
	"errors"
	"fmt"
)

// NotFoundError reports a referenced entity id that does not exist.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s不存在: %v", e.Entity, e.ID)
}

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// OperationFailedError is the single user-facing error a workflow surfaces
// for extraction, completion and decoding failures.
type OperationFailedError struct {
	Op  string
	Err error
}

func (e *OperationFailedError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *OperationFailedError) Unwrap() error { return e.Err }

func OperationFailed(op string, err error) error {
	return &OperationFailedError{Op: op, Err: err}
}

// ErrUnavailable marks a feature whose backing service is not configured.
var ErrUnavailable = errors.New("服务暂不可用")
