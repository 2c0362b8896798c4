// Package storagetest provides a reusable conformance suite for
// storage.Storage implementations.
package storagetest

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	stdruntime "runtime"

	"github.com/stretchr/testify/assert"

	"github.com/ppmc/flowbridge/pkg/storage"
)

type StorageTestFunc func(s storage.Storage, t *testing.T) func(t *testing.T)

type StorageTester struct {
	template   storage.ProcessTemplate
	instance   storage.ProcessInstance
	submission storage.Submission
}

func (st *StorageTester) GetTests() map[string]StorageTestFunc {
	tests := map[string]StorageTestFunc{}

	// all test functions need to be registered here
	functions := []StorageTestFunc{
		st.TestProcessTemplateStorageWriter,
		st.TestProcessTemplateStorageReader,
		st.TestProcessInstanceStorageWriter,
		st.TestProcessInstanceStorageReader,
		st.TestProcessInstanceEngineIdUniqueness,
		st.TestSubmissionStorage,
		st.TestEmployeeStorageReader,
		st.TestFormStorageReader,
		st.TestNotificationStorageWriter,
	}

	for _, function := range functions {
		funcName := getFunctionName(function)
		strippedName := funcName[strings.LastIndex(funcName, ".")+1:]
		tests[strippedName] = function
	}
	return tests
}

func getFunctionName(i any) string {
	return stdruntime.FuncForPC(reflect.ValueOf(i).Pointer()).Name()
}

func getTemplate(r int64) storage.ProcessTemplate {
	return storage.ProcessTemplate{
		Key:              r,
		FormID:           r + 1,
		DefinitionKey:    fmt.Sprintf("process-%d", r),
		DefinitionSource: fmt.Sprintf(`<definitions id="process-%d"></definitions>`, r),
		DeploymentID:     fmt.Sprintf("deployment-%d", r),
		CreatedAt:        time.Now().Truncate(time.Millisecond),
		UpdatedAt:        time.Now().Truncate(time.Millisecond),
	}
}

func getInstance(r int64, template storage.ProcessTemplate) storage.ProcessInstance {
	return storage.ProcessInstance{
		Key:              r,
		TemplateKey:      template.Key,
		SubmissionKey:    r + 2,
		EngineInstanceID: fmt.Sprintf("engine-instance-%d", r),
		Status:           storage.InstanceStatusProcessing,
		CreatedAt:        time.Now().Truncate(time.Millisecond),
	}
}

// PrepareTestData will prepare common data for the tests
func (st *StorageTester) PrepareTestData(s storage.Storage, t *testing.T) {
	r := s.GenerateKey()

	st.template = getTemplate(r)
	err := s.SaveProcessTemplate(t.Context(), st.template)
	assert.NoError(t, err)

	st.instance = getInstance(r, st.template)
	err = s.SaveProcessInstance(t.Context(), st.instance)
	assert.NoError(t, err)

	st.submission = storage.Submission{
		Key:         st.instance.SubmissionKey,
		FormID:      st.template.FormID,
		FormName:    "Expense claim",
		SubmitterID: "u-100",
		DataJSON:    `{"amount":100}`,
		Status:      storage.SubmissionStatusPending,
	}
	err = s.SaveSubmission(t.Context(), st.submission)
	assert.NoError(t, err)
}

func (st *StorageTester) TestProcessTemplateStorageWriter(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		r := s.GenerateKey()
		tpl := getTemplate(r)

		err := s.SaveProcessTemplate(t.Context(), tpl)
		assert.NoError(t, err)

		found, err := s.FindProcessTemplateByKey(t.Context(), r)
		assert.NoError(t, err)
		assert.Equal(t, r, found.Key)

		// upsert with the same key replaces the content
		tpl.DefinitionKey = "replaced"
		err = s.SaveProcessTemplate(t.Context(), tpl)
		assert.NoError(t, err)
		found, err = s.FindProcessTemplateByKey(t.Context(), r)
		assert.NoError(t, err)
		assert.Equal(t, "replaced", found.DefinitionKey)
	}
}

func (st *StorageTester) TestProcessTemplateStorageReader(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		r := s.GenerateKey()
		tpl := getTemplate(r)

		err := s.SaveProcessTemplate(t.Context(), tpl)
		assert.NoError(t, err)

		found, err := s.FindProcessTemplateByFormId(t.Context(), tpl.FormID)
		assert.NoError(t, err)
		assert.Equal(t, r, found.Key)

		_, err = s.FindProcessTemplateByFormId(t.Context(), -1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func (st *StorageTester) TestProcessInstanceStorageWriter(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		r := s.GenerateKey()
		instance := getInstance(r, st.template)

		err := s.SaveProcessInstance(t.Context(), instance)
		assert.NoError(t, err)

		found, err := s.FindProcessInstanceByKey(t.Context(), r)
		assert.NoError(t, err)
		assert.Equal(t, storage.InstanceStatusProcessing, found.Status)
	}
}

func (st *StorageTester) TestProcessInstanceStorageReader(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		r := s.GenerateKey()
		instance := getInstance(r, st.template)

		err := s.SaveProcessInstance(t.Context(), instance)
		assert.NoError(t, err)

		found, err := s.FindProcessInstanceByEngineId(t.Context(), instance.EngineInstanceID)
		assert.NoError(t, err)
		assert.Equal(t, r, found.Key)

		_, err = s.FindProcessInstanceByEngineId(t.Context(), "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func (st *StorageTester) TestProcessInstanceEngineIdUniqueness(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		r := s.GenerateKey()
		instance := getInstance(r, st.template)

		err := s.SaveProcessInstance(t.Context(), instance)
		assert.NoError(t, err)

		duplicate := getInstance(s.GenerateKey(), st.template)
		duplicate.EngineInstanceID = instance.EngineInstanceID
		err = s.SaveProcessInstance(t.Context(), duplicate)
		assert.ErrorIs(t, err, storage.ErrDuplicateEngineInstance)

		// updating the same row is not a conflict
		instance.Status = storage.InstanceStatusApproved
		err = s.SaveProcessInstance(t.Context(), instance)
		assert.NoError(t, err)
	}
}

func (st *StorageTester) TestSubmissionStorage(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		found, err := s.FindSubmissionByKey(t.Context(), st.submission.Key)
		assert.NoError(t, err)
		assert.Equal(t, st.submission.SubmitterID, found.SubmitterID)

		found.Status = storage.SubmissionStatusRejected
		err = s.SaveSubmission(t.Context(), found)
		assert.NoError(t, err)

		found, err = s.FindSubmissionByKey(t.Context(), st.submission.Key)
		assert.NoError(t, err)
		assert.Equal(t, storage.SubmissionStatusRejected, found.Status)
	}
}

func (st *StorageTester) TestEmployeeStorageReader(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		_, err := s.FindEmployeeById(t.Context(), "no-such-employee")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func (st *StorageTester) TestFormStorageReader(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		_, err := s.FindFormName(t.Context(), -1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func (st *StorageTester) TestNotificationStorageWriter(s storage.Storage, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		err := s.SaveNotification(t.Context(), storage.Notification{
			Key:       s.GenerateKey(),
			UserID:    "u-1",
			Title:     "title",
			Content:   "content",
			Type:      "task_reminder",
			Link:      "/tasks/1",
			CreatedAt: time.Now(),
		})
		assert.NoError(t, err)
	}
}
