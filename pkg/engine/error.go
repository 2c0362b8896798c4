package engine

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned by task operations when the engine no longer
// knows an open task with the given id.
var ErrTaskNotFound = errors.New("task not found in engine")

// ErrInstanceNotFound is returned by instance scoped operations when the
// engine has no instance with the given handle.
var ErrInstanceNotFound = errors.New("process instance not found in engine")

// EngineError wraps a failure of the engine API itself (transport failure,
// unexpected response).
type EngineError struct {
	Msg string
	Err error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// newEngineErrorf uses fmt.Sprintf(format, a...) to format the message
func newEngineErrorf(format string, a ...any) error {
	return &EngineError{Msg: fmt.Sprintf(format, a...)}
}

// Fault codes raised by the orchestration hooks.
const (
	FaultNoSubmitter       = "NO_SUBMITTER"
	FaultUserNotFound      = "USER_NOT_FOUND"
	FaultManagerNotFound   = "MANAGER_NOT_FOUND"
	FaultDataInconsistency = "DATA_INCONSISTENCY"
)

// BusinessError is a named fault signaled into the engine so a process
// definition can branch to an error handling path instead of crashing the
// instance.
type BusinessError struct {
	Code    string
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBusinessError uses fmt.Sprintf(format, a...) to format the message
func NewBusinessError(code string, format string, a ...any) *BusinessError {
	return &BusinessError{Code: code, Message: fmt.Sprintf(format, a...)}
}

// AsBusinessError unwraps err into a BusinessError if it carries one.
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
