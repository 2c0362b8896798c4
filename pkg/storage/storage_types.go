package storage

import (
	"time"
)

// InstanceStatus is the lifecycle state of a locally mirrored process
// instance. It starts at PROCESSING and moves to exactly one terminal
// value exactly once.
type InstanceStatus string

const (
	InstanceStatusProcessing InstanceStatus = "PROCESSING"
	InstanceStatusApproved   InstanceStatus = "APPROVED"
	InstanceStatusRejected   InstanceStatus = "REJECTED"
	InstanceStatusTerminated InstanceStatus = "TERMINATED"
)

// IsTerminal returns true for statuses that permit no further writes.
func (s InstanceStatus) IsTerminal() bool {
	switch s {
	case InstanceStatusApproved, InstanceStatusRejected, InstanceStatusTerminated:
		return true
	}
	return false
}

// SubmissionStatus is the business status of a form submission. It moves in
// lockstep with the terminal status of the instance attached to it.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusApproved SubmissionStatus = "APPROVED"
	SubmissionStatusRejected SubmissionStatus = "REJECTED"
)

// ProcessTemplate binds a form to a process definition deployed in the
// external engine. At most one template exists per form.
type ProcessTemplate struct {
	Key              int64     // local key
	FormID           int64     // the form this template is bound to
	DefinitionKey    string    // process definition key known to the engine
	DefinitionSource string    // raw definition source registered with the engine
	DeploymentID     string    // opaque engine deployment handle
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProcessInstance is the local mirror of one engine-side process instance.
type ProcessInstance struct {
	Key              int64
	TemplateKey      int64
	SubmissionKey    int64
	EngineInstanceID string // unique, engine-side instance handle
	Status           InstanceStatus
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// Submission is owned by the form subsystem. The orchestration layer reads
// it, sets its instance back-reference once at launch time and moves its
// status together with the instance's terminal status.
type Submission struct {
	Key         int64
	FormID      int64
	FormName    string
	SubmitterID string
	DataJSON    string
	Status      SubmissionStatus
	InstanceKey int64 // 0 when no process instance was launched
}

// Employee is owned by the organization store. ManagerID is empty at the
// top of a manager chain.
type Employee struct {
	ID        string
	Name      string
	Email     string
	ManagerID string
}

// Notification is an in-app notification record owned by the notification
// subsystem; this layer only creates them.
type Notification struct {
	Key       int64
	UserID    string
	Title     string
	Content   string
	Type      string
	Link      string
	Read      bool
	CreatedAt time.Time
}
