package inmemory

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"

	"github.com/ppmc/flowbridge/pkg/storage"
)

// Storage keeps the workflow mirror in memory,
// please use NewStorage to create a new object of this type.
type Storage struct {
	mu sync.RWMutex

	ProcessTemplates map[int64]storage.ProcessTemplate
	ProcessInstances map[int64]storage.ProcessInstance
	Submissions      map[int64]storage.Submission
	Employees        map[string]storage.Employee
	Forms            map[int64]string
	Notifications    map[int64]storage.Notification

	node *snowflake.Node
}

func NewStorage() *Storage {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return &Storage{
		ProcessTemplates: make(map[int64]storage.ProcessTemplate),
		ProcessInstances: make(map[int64]storage.ProcessInstance),
		Submissions:      make(map[int64]storage.Submission),
		Employees:        make(map[string]storage.Employee),
		Forms:            make(map[int64]string),
		Notifications:    make(map[int64]storage.Notification),
		node:             node,
	}
}

var _ storage.Storage = &Storage{}

func (mem *Storage) GenerateKey() int64 {
	return mem.node.Generate().Int64()
}

var _ storage.ProcessTemplateStorageReader = &Storage{}

func (mem *Storage) FindProcessTemplateByKey(ctx context.Context, key int64) (storage.ProcessTemplate, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	res, ok := mem.ProcessTemplates[key]
	if !ok {
		return res, storage.ErrNotFound
	}
	return res, nil
}

func (mem *Storage) FindProcessTemplateByFormId(ctx context.Context, formID int64) (storage.ProcessTemplate, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	for _, tpl := range mem.ProcessTemplates {
		if tpl.FormID == formID {
			return tpl, nil
		}
	}
	return storage.ProcessTemplate{}, storage.ErrNotFound
}

var _ storage.ProcessTemplateStorageWriter = &Storage{}

func (mem *Storage) SaveProcessTemplate(ctx context.Context, template storage.ProcessTemplate) error {
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.ProcessTemplates[template.Key] = template
	return nil
}

var _ storage.ProcessInstanceStorageReader = &Storage{}

func (mem *Storage) FindProcessInstanceByKey(ctx context.Context, key int64) (storage.ProcessInstance, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	res, ok := mem.ProcessInstances[key]
	if !ok {
		return res, storage.ErrNotFound
	}
	return res, nil
}

func (mem *Storage) FindProcessInstanceByEngineId(ctx context.Context, engineInstanceID string) (storage.ProcessInstance, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	for _, instance := range mem.ProcessInstances {
		if instance.EngineInstanceID == engineInstanceID {
			return instance, nil
		}
	}
	return storage.ProcessInstance{}, storage.ErrNotFound
}

var _ storage.ProcessInstanceStorageWriter = &Storage{}

func (mem *Storage) SaveProcessInstance(ctx context.Context, instance storage.ProcessInstance) error {
	mem.mu.Lock()
	defer mem.mu.Unlock()
	for _, existing := range mem.ProcessInstances {
		if existing.EngineInstanceID == instance.EngineInstanceID && existing.Key != instance.Key {
			return storage.ErrDuplicateEngineInstance
		}
	}
	mem.ProcessInstances[instance.Key] = instance
	return nil
}

var _ storage.SubmissionStorageReader = &Storage{}

func (mem *Storage) FindSubmissionByKey(ctx context.Context, key int64) (storage.Submission, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	res, ok := mem.Submissions[key]
	if !ok {
		return res, storage.ErrNotFound
	}
	return res, nil
}

var _ storage.SubmissionStorageWriter = &Storage{}

func (mem *Storage) SaveSubmission(ctx context.Context, submission storage.Submission) error {
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.Submissions[submission.Key] = submission
	return nil
}

var _ storage.EmployeeStorageReader = &Storage{}

func (mem *Storage) FindEmployeeById(ctx context.Context, id string) (storage.Employee, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	res, ok := mem.Employees[id]
	if !ok {
		return res, storage.ErrNotFound
	}
	return res, nil
}

var _ storage.FormStorageReader = &Storage{}

func (mem *Storage) FindFormName(ctx context.Context, formID int64) (string, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	name, ok := mem.Forms[formID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return name, nil
}

var _ storage.NotificationStorageWriter = &Storage{}

func (mem *Storage) SaveNotification(ctx context.Context, notification storage.Notification) error {
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.Notifications[notification.Key] = notification
	return nil
}

// NotificationsForUser returns the stored notifications for a user, used by
// tests and the status endpoint.
func (mem *Storage) NotificationsForUser(userID string) []storage.Notification {
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	res := make([]storage.Notification, 0)
	for _, n := range mem.Notifications {
		if n.UserID == userID {
			res = append(res, n)
		}
	}
	return res
}
