// Package enginetest provides an in-memory fake of the process engine
// boundary for tests.
package enginetest

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppmc/flowbridge/pkg/engine"
)

type Deployment struct {
	ID           string
	Name         string
	ResourceName string
	Definition   string
}

type StartedInstance struct {
	ID            string
	DefinitionKey string
	Variables     map[string]any
}

type Reassignment struct {
	TaskID   string
	Assignee string
}

// Engine records every call made through the engine.Client surface and keeps
// a task list plus per-instance variable scopes so hook code can be tested
// against it, please use NewEngine to create a new object of this type.
type Engine struct {
	mu sync.Mutex

	Deployments    []Deployment
	Started        []StartedInstance
	CompletedTasks map[string]map[string]any
	Reassignments  []Reassignment

	tasks     map[string]engine.Task
	variables map[string]map[string]any

	// error injection
	FailDeploy        error
	FailStartInstance error
	FailCompleteTask  error
	FailSetAssignee   error
}

var _ engine.Client = &Engine{}

func NewEngine() *Engine {
	return &Engine{
		CompletedTasks: make(map[string]map[string]any),
		tasks:          make(map[string]engine.Task),
		variables:      make(map[string]map[string]any),
	}
}

func (e *Engine) Deploy(ctx context.Context, name string, resourceName string, definition string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailDeploy != nil {
		return "", e.FailDeploy
	}
	d := Deployment{
		ID:           uuid.NewString(),
		Name:         name,
		ResourceName: resourceName,
		Definition:   definition,
	}
	e.Deployments = append(e.Deployments, d)
	return d.ID, nil
}

func (e *Engine) StartInstance(ctx context.Context, definitionKey string, variables map[string]any) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailStartInstance != nil {
		return "", e.FailStartInstance
	}
	instance := StartedInstance{
		ID:            uuid.NewString(),
		DefinitionKey: definitionKey,
		Variables:     maps.Clone(variables),
	}
	e.Started = append(e.Started, instance)
	e.variables[instance.ID] = maps.Clone(variables)
	if e.variables[instance.ID] == nil {
		e.variables[instance.ID] = map[string]any{}
	}
	return instance.ID, nil
}

func (e *Engine) CompleteTask(ctx context.Context, taskID string, variables map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailCompleteTask != nil {
		return e.FailCompleteTask
	}
	task, ok := e.tasks[taskID]
	if !ok {
		return engine.ErrTaskNotFound
	}
	delete(e.tasks, taskID)
	e.CompletedTasks[taskID] = maps.Clone(variables)
	if scope, ok := e.variables[task.ProcessInstanceID]; ok {
		maps.Copy(scope, variables)
	}
	return nil
}

func (e *Engine) SetAssignee(ctx context.Context, taskID string, assignee string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailSetAssignee != nil {
		return e.FailSetAssignee
	}
	task, ok := e.tasks[taskID]
	if !ok {
		return engine.ErrTaskNotFound
	}
	task.Assignee = assignee
	e.tasks[taskID] = task
	e.Reassignments = append(e.Reassignments, Reassignment{TaskID: taskID, Assignee: assignee})
	return nil
}

func (e *Engine) TasksByInstanceAndActivity(ctx context.Context, processInstanceID string, activityKey string) ([]engine.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]engine.Task, 0)
	for _, task := range e.tasks {
		if task.ProcessInstanceID == processInstanceID && task.ActivityKey == activityKey {
			res = append(res, task)
		}
	}
	return res, nil
}

func (e *Engine) TasksByAssignee(ctx context.Context, assignee string) ([]engine.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]engine.Task, 0)
	for _, task := range e.tasks {
		if task.Assignee == assignee {
			res = append(res, task)
		}
	}
	return res, nil
}

func (e *Engine) Variables(ctx context.Context, processInstanceID string) (map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	scope, ok := e.variables[processInstanceID]
	if !ok {
		return nil, engine.ErrInstanceNotFound
	}
	return maps.Clone(scope), nil
}

func (e *Engine) SetVariables(ctx context.Context, processInstanceID string, variables map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	scope, ok := e.variables[processInstanceID]
	if !ok {
		return engine.ErrInstanceNotFound
	}
	maps.Copy(scope, variables)
	return nil
}

// AddTask registers an open task, creating the instance variable scope when
// it does not exist yet.
func (e *Engine) AddTask(task engine.Task) engine.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if _, ok := e.variables[task.ProcessInstanceID]; !ok {
		e.variables[task.ProcessInstanceID] = map[string]any{}
	}
	e.tasks[task.ID] = task
	return task
}

// Task returns the open task with the given id.
func (e *Engine) Task(taskID string) (engine.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	task, ok := e.tasks[taskID]
	return task, ok
}

// OpenTaskCount returns the number of tasks not yet completed.
func (e *Engine) OpenTaskCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Execution is an ExecutionContext backed by the fake engine's variable
// scope for one instance.
type Execution struct {
	engine      *Engine
	instanceID  string
	activityKey string
}

var _ engine.ExecutionContext = &Execution{}

// NewExecution builds an execution context for the given instance. The
// instance scope is created when absent.
func (e *Engine) NewExecution(processInstanceID string, activityKey string) *Execution {
	e.mu.Lock()
	if _, ok := e.variables[processInstanceID]; !ok {
		e.variables[processInstanceID] = map[string]any{}
	}
	e.mu.Unlock()
	return &Execution{engine: e, instanceID: processInstanceID, activityKey: activityKey}
}

func (x *Execution) ProcessInstanceID() string {
	return x.instanceID
}

func (x *Execution) ActivityKey() string {
	return x.activityKey
}

func (x *Execution) Variable(name string) (any, bool) {
	x.engine.mu.Lock()
	defer x.engine.mu.Unlock()
	v, ok := x.engine.variables[x.instanceID][name]
	return v, ok
}

func (x *Execution) SetVariable(name string, value any) {
	x.engine.mu.Lock()
	defer x.engine.mu.Unlock()
	x.engine.variables[x.instanceID][name] = value
}

func (x *Execution) RemoveVariable(name string) {
	x.engine.mu.Lock()
	defer x.engine.mu.Unlock()
	delete(x.engine.variables[x.instanceID], name)
}

// TaskEvent is a TaskContext for tests.
type TaskEvent struct {
	Name      engine.TaskEventName
	TaskValue engine.Task
}

var _ engine.TaskContext = TaskEvent{}

func (t TaskEvent) EventName() engine.TaskEventName {
	return t.Name
}

func (t TaskEvent) Task() engine.Task {
	return t.TaskValue
}

// String helps test failure output.
func (t TaskEvent) String() string {
	return fmt.Sprintf("task-event{%s %s}", t.Name, t.TaskValue.ID)
}
