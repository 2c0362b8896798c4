package engine

// Execution is a concrete ExecutionContext backed by a variable snapshot the
// engine handed over for the duration of one hook invocation. Writes and
// removals are tracked so the caller can hand the delta back to the engine
// when the hook returns.
type Execution struct {
	processInstanceID string
	activityKey       string
	variables         map[string]any
	removed           map[string]struct{}
}

var _ ExecutionContext = &Execution{}

func NewExecution(processInstanceID string, activityKey string, variables map[string]any) *Execution {
	if variables == nil {
		variables = map[string]any{}
	}
	return &Execution{
		processInstanceID: processInstanceID,
		activityKey:       activityKey,
		variables:         variables,
		removed:           map[string]struct{}{},
	}
}

func (e *Execution) ProcessInstanceID() string {
	return e.processInstanceID
}

func (e *Execution) ActivityKey() string {
	return e.activityKey
}

func (e *Execution) Variable(name string) (any, bool) {
	v, ok := e.variables[name]
	return v, ok
}

func (e *Execution) SetVariable(name string, value any) {
	delete(e.removed, name)
	e.variables[name] = value
}

func (e *Execution) RemoveVariable(name string) {
	delete(e.variables, name)
	e.removed[name] = struct{}{}
}

// Variables returns the variable scope after the hook ran.
func (e *Execution) Variables() map[string]any {
	return e.variables
}

// Removed lists the variable names the hook removed from the scope.
func (e *Execution) Removed() []string {
	names := make([]string, 0, len(e.removed))
	for name := range e.removed {
		names = append(names, name)
	}
	return names
}

// taskEvent is the TaskContext carried by engine task lifecycle callbacks.
type taskEvent struct {
	eventName TaskEventName
	task      Task
}

var _ TaskContext = taskEvent{}

func NewTaskEvent(eventName TaskEventName, task Task) TaskContext {
	return taskEvent{eventName: eventName, task: task}
}

func (e taskEvent) EventName() TaskEventName {
	return e.eventName
}

func (e taskEvent) Task() Task {
	return e.task
}
