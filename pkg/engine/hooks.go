package engine

import (
	"context"
)

// ExecutionContext is handed to execution scoped hooks while the engine is
// mid-execution of a process instance. Variable reads and writes go straight
// against the engine's own variable scope for that instance.
type ExecutionContext interface {
	ProcessInstanceID() string

	// ActivityKey identifies the user task node the current execution relates
	// to. For timer escalation hooks the engine has already traced the boundary
	// event back to the user task it is attached to, so this is the key of the
	// task that timed out, not the key of the service node running the hook.
	ActivityKey() string

	Variable(name string) (any, bool)
	SetVariable(name string, value any)
	RemoveVariable(name string)
}

// TaskEventName distinguishes the sub-events of the task lifecycle hook.
type TaskEventName string

const (
	TaskEventCreate     TaskEventName = "create"
	TaskEventAssignment TaskEventName = "assignment"
	TaskEventComplete   TaskEventName = "complete"
	TaskEventDelete     TaskEventName = "delete"
)

// TaskContext is handed to task lifecycle hooks.
type TaskContext interface {
	EventName() TaskEventName
	Task() Task
}

type ExecutionHandler func(ctx context.Context, execution ExecutionContext) error

type TaskEventHandler func(ctx context.Context, task TaskContext) error

// Hooks is the closed set of trigger points the orchestration layer
// registers with the engine. All handlers run inline on the engine's own
// execution thread, inside the transactional boundary the engine establishes
// for that step: a returned error aborts the engine's step unless it is a
// BusinessError, which the engine routes to the error handling branch of the
// process definition instead.
type Hooks struct {
	// OnResolveAssignee computes a dynamic approver and publishes it into the
	// instance's variable scope.
	OnResolveAssignee ExecutionHandler

	// OnTimerEscalation fires when a boundary timer attached to an open user
	// task elapses.
	OnTimerEscalation ExecutionHandler

	// OnOverdueEmail and OnOverdueInApp are single channel variants of the
	// timer hook that notify without reassigning.
	OnOverdueEmail ExecutionHandler
	OnOverdueInApp ExecutionHandler

	// OnProcessApproved and OnProcessRejected fire once when the engine
	// finishes an instance along the respective path.
	OnProcessApproved ExecutionHandler
	OnProcessRejected ExecutionHandler

	// OnTaskEvent fires for every task lifecycle sub-event.
	OnTaskEvent TaskEventHandler
}
