package engine

import (
	"context"
	"time"
)

// Task is an open user task as reported by the engine.
type Task struct {
	ID                string
	Name              string
	ProcessInstanceID string
	// ActivityKey is the definition key of the user task node that created this task
	ActivityKey string
	Assignee    string
	CreatedAt   time.Time
}

// Client is the narrow API consumed from the process engine. Implementations
// must be safe for concurrent use.
type Client interface {
	// Deploy registers a process definition under the given resource name and
	// returns the opaque deployment handle.
	Deploy(ctx context.Context, name string, resourceName string, definition string) (string, error)

	// StartInstance starts a new instance of the given process definition key
	// with the initial variable set and returns the engine instance handle.
	StartInstance(ctx context.Context, definitionKey string, variables map[string]any) (string, error)

	// CompleteTask completes an open user task, publishing the given
	// variables into the instance scope.
	CompleteTask(ctx context.Context, taskID string, variables map[string]any) error

	// SetAssignee reassigns an open user task.
	SetAssignee(ctx context.Context, taskID string, assignee string) error

	// TasksByInstanceAndActivity returns the open tasks of a process instance
	// created by the user task node with the given activity key.
	TasksByInstanceAndActivity(ctx context.Context, processInstanceID string, activityKey string) ([]Task, error)

	// TasksByAssignee returns the open tasks assigned to the given user.
	TasksByAssignee(ctx context.Context, assignee string) ([]Task, error)

	// Variables reads the variable scope of a process instance.
	Variables(ctx context.Context, processInstanceID string) (map[string]any, error)

	// SetVariables writes into the variable scope of a process instance.
	SetVariables(ctx context.Context, processInstanceID string, variables map[string]any) error
}
