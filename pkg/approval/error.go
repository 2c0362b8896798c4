package approval

import "fmt"

// UnknownEmployeeError is returned when a referenced employee does not exist
// in the organization store.
type UnknownEmployeeError struct {
	EmployeeID string
}

func (e *UnknownEmployeeError) Error() string {
	return fmt.Sprintf("employee %s not found", e.EmployeeID)
}

// ChainTooShortError is returned when the manager chain of an employee ends
// before the requested level is reached.
type ChainTooShortError struct {
	EmployeeID string
	Level      int
	Reached    int
}

func (e *ChainTooShortError) Error() string {
	return fmt.Sprintf("manager chain of employee %s ends at level %d, level %d requested", e.EmployeeID, e.Reached, e.Level)
}

// FormNotFoundError is returned by template registration for an unknown form.
type FormNotFoundError struct {
	FormID int64
}

func (e *FormNotFoundError) Error() string {
	return fmt.Sprintf("form %d not found", e.FormID)
}

// PayloadDecodeError aborts a launch whose submission payload is not a flat
// JSON object. No engine instance and no local row exist after it.
type PayloadDecodeError struct {
	SubmissionKey int64
	Err           error
}

func (e *PayloadDecodeError) Error() string {
	return fmt.Sprintf("failed to decode payload of submission %d: %s", e.SubmissionKey, e.Err)
}

func (e *PayloadDecodeError) Unwrap() error {
	return e.Err
}

// AlreadyLaunchedError prevents a second process instance for a submission.
type AlreadyLaunchedError struct {
	SubmissionKey int64
	InstanceKey   int64
}

func (e *AlreadyLaunchedError) Error() string {
	return fmt.Sprintf("submission %d already has process instance %d", e.SubmissionKey, e.InstanceKey)
}

// UnknownDecisionError is returned by the completion gateway for a decision
// outside the supported set.
type UnknownDecisionError struct {
	Decision Decision
}

func (e *UnknownDecisionError) Error() string {
	return fmt.Sprintf("unknown decision %q", e.Decision)
}
