package approval

import (
	"context"
	"sync"
	"testing"

	"github.com/ppmc/flowbridge/pkg/engine/enginetest"
	"github.com/ppmc/flowbridge/pkg/erp"
	"github.com/ppmc/flowbridge/pkg/storage"
	"github.com/ppmc/flowbridge/pkg/storage/inmemory"
)

type recordedTaskEmail struct {
	To            string
	TaskName      string
	FormName      string
	SubmitterName string
}

type recordedTaskInApp struct {
	UserID        string
	TaskName      string
	FormName      string
	SubmitterName string
	Link          string
}

type recordedOverdueEmail struct {
	To                   string
	RecipientName        string
	TaskName             string
	FormName             string
	OriginalAssigneeName string
}

type recordedOverdueInApp struct {
	UserID        string
	FormName      string
	SubmitterName string
	Link          string
}

// notifierRecorder is a synchronous Notifier that records every call.
type notifierRecorder struct {
	mu sync.Mutex

	TaskEmails    []recordedTaskEmail
	TaskInApps    []recordedTaskInApp
	OverdueEmails []recordedOverdueEmail
	OverdueInApps []recordedOverdueInApp
}

var _ Notifier = &notifierRecorder{}

func (n *notifierRecorder) NewTaskEmail(to string, taskName string, formName string, submitterName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.TaskEmails = append(n.TaskEmails, recordedTaskEmail{to, taskName, formName, submitterName})
}

func (n *notifierRecorder) NewTaskInApp(userID string, taskName string, formName string, submitterName string, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.TaskInApps = append(n.TaskInApps, recordedTaskInApp{userID, taskName, formName, submitterName, link})
}

func (n *notifierRecorder) OverdueEmail(to string, recipientName string, taskName string, formName string, originalAssigneeName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.OverdueEmails = append(n.OverdueEmails, recordedOverdueEmail{to, recipientName, taskName, formName, originalAssigneeName})
}

func (n *notifierRecorder) OverdueInApp(userID string, formName string, submitterName string, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.OverdueInApps = append(n.OverdueInApps, recordedOverdueInApp{userID, formName, submitterName, link})
}

type fixture struct {
	service  *Service
	engine   *enginetest.Engine
	store    *inmemory.Storage
	notifier *notifierRecorder
	erp      *erp.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	eng := enginetest.NewEngine()
	store := inmemory.NewStorage()
	notifier := &notifierRecorder{}
	erpMock := erp.NewMock()
	return &fixture{
		service:  NewService(eng, store, notifier, erpMock),
		engine:   eng,
		store:    store,
		notifier: notifier,
		erp:      erpMock,
	}
}

func (f *fixture) seedEmployee(employee storage.Employee) {
	f.store.Employees[employee.ID] = employee
}

func (f *fixture) seedForm(formID int64, name string) {
	f.store.Forms[formID] = name
}

func (f *fixture) seedSubmission(t *testing.T, submission storage.Submission) storage.Submission {
	t.Helper()
	if submission.Key == 0 {
		submission.Key = f.store.GenerateKey()
	}
	err := f.store.SaveSubmission(context.Background(), submission)
	if err != nil {
		t.Fatalf("failed to seed submission: %s", err)
	}
	return submission
}

func employeeWithManager(id string, managerID string) storage.Employee {
	return storage.Employee{ID: id, Name: id, ManagerID: managerID}
}

// seedOrgChart sets up the three level chain used by the resolver tests:
// emp-3 reports to emp-2, emp-2 reports to emp-1, emp-1 reports to no one.
func (f *fixture) seedOrgChart() {
	f.seedEmployee(storage.Employee{ID: "emp-1", Name: "Ada Top", Email: "ada@corp.example"})
	f.seedEmployee(storage.Employee{ID: "emp-2", Name: "Bob Middle", Email: "bob@corp.example", ManagerID: "emp-1"})
	f.seedEmployee(storage.Employee{ID: "emp-3", Name: "Cleo Leaf", Email: "cleo@corp.example", ManagerID: "emp-2"})
}
