package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by all Find* methods when no row matches.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEngineInstance is returned when saving a process instance
// whose EngineInstanceID is already taken by a different row. It backs the
// unique constraint that makes the submission-to-instance link 1:1.
var ErrDuplicateEngineInstance = errors.New("engine instance id already mirrored")

type ProcessTemplateStorageReader interface {
	// FindProcessTemplateByKey returns the template with the given local key
	FindProcessTemplateByKey(ctx context.Context, key int64) (ProcessTemplate, error)

	// FindProcessTemplateByFormId returns the template bound to the given form
	FindProcessTemplateByFormId(ctx context.Context, formID int64) (ProcessTemplate, error)
}

type ProcessTemplateStorageWriter interface {
	// SaveProcessTemplate persists the template and overwrites prior data
	// stored with the given Key
	SaveProcessTemplate(ctx context.Context, template ProcessTemplate) error
}

type ProcessInstanceStorageReader interface {
	FindProcessInstanceByKey(ctx context.Context, key int64) (ProcessInstance, error)

	// FindProcessInstanceByEngineId returns the mirror row for an engine-side
	// instance handle
	FindProcessInstanceByEngineId(ctx context.Context, engineInstanceID string) (ProcessInstance, error)
}

type ProcessInstanceStorageWriter interface {
	// SaveProcessInstance persists the instance and overwrites prior data
	// stored with the given Key. Returns ErrDuplicateEngineInstance when the
	// EngineInstanceID belongs to a different row.
	SaveProcessInstance(ctx context.Context, instance ProcessInstance) error
}

type SubmissionStorageReader interface {
	FindSubmissionByKey(ctx context.Context, key int64) (Submission, error)
}

type SubmissionStorageWriter interface {
	SaveSubmission(ctx context.Context, submission Submission) error
}

type EmployeeStorageReader interface {
	FindEmployeeById(ctx context.Context, id string) (Employee, error)
}

type FormStorageReader interface {
	// FindFormName returns the display name of a form definition,
	// ErrNotFound when no such form exists
	FindFormName(ctx context.Context, formID int64) (string, error)
}

type NotificationStorageWriter interface {
	SaveNotification(ctx context.Context, notification Notification) error
}

// Storage is the full surface the orchestration layer works against.
type Storage interface {
	ProcessTemplateStorageReader
	ProcessTemplateStorageWriter
	ProcessInstanceStorageReader
	ProcessInstanceStorageWriter
	SubmissionStorageReader
	SubmissionStorageWriter
	EmployeeStorageReader
	FormStorageReader
	NotificationStorageWriter

	// GenerateKey produces a new unique key for locally owned rows
	GenerateKey() int64
}
