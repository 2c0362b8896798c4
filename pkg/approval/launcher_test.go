package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmc/flowbridge/pkg/storage"
)

func (f *fixture) seedExpenseTemplate(t *testing.T) storage.ProcessTemplate {
	t.Helper()
	template := storage.ProcessTemplate{
		Key:           f.store.GenerateKey(),
		FormID:        7,
		DefinitionKey: "expense-v1",
	}
	require.NoError(t, f.store.SaveProcessTemplate(context.Background(), template))
	return template
}

func TestLaunchStartsInstanceWithVariables(t *testing.T) {
	f := newFixture(t)
	f.seedOrgChart()
	f.seedExpenseTemplate(t)
	submission := f.seedSubmission(t, storage.Submission{
		FormID:      7,
		FormName:    "Expense report",
		SubmitterID: "emp-3",
		DataJSON:    `{"amount":100}`,
		Status:      storage.SubmissionStatusPending,
	})

	err := f.service.Launch(context.Background(), submission.Key)
	require.NoError(t, err)

	require.Len(t, f.engine.Started, 1)
	started := f.engine.Started[0]
	assert.Equal(t, "expense-v1", started.DefinitionKey)
	assert.Equal(t, float64(100), started.Variables["amount"])
	assert.Equal(t, "emp-3", started.Variables["submitterId"])
	assert.Equal(t, submission.Key, started.Variables["submissionId"])
	assert.Equal(t, "Cleo Leaf", started.Variables["submitterName"])
	assert.Equal(t, "Expense report", started.Variables["formName"])
	assert.Equal(t, "emp-3", started.Variables["initiator"])
	assert.Equal(t, "emp-2", started.Variables["managerId"])

	instance, err := f.store.FindProcessInstanceByEngineId(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.InstanceStatusProcessing, instance.Status)
	assert.Equal(t, submission.Key, instance.SubmissionKey)
	assert.Nil(t, instance.CompletedAt)

	// submission points back at the mirror row
	stored, err := f.store.FindSubmissionByKey(context.Background(), submission.Key)
	require.NoError(t, err)
	assert.Equal(t, instance.Key, stored.InstanceKey)
}

func TestLaunchWithoutTemplateIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.seedOrgChart()
	submission := f.seedSubmission(t, storage.Submission{
		FormID:      42,
		FormName:    "Plain survey",
		SubmitterID: "emp-3",
		DataJSON:    `{}`,
	})

	err := f.service.Launch(context.Background(), submission.Key)
	assert.NoError(t, err)
	assert.Empty(t, f.engine.Started)
	assert.Empty(t, f.store.ProcessInstances)
}

func TestLaunchTwiceFailsWithAlreadyLaunched(t *testing.T) {
	f := newFixture(t)
	f.seedOrgChart()
	f.seedExpenseTemplate(t)
	submission := f.seedSubmission(t, storage.Submission{
		FormID:      7,
		FormName:    "Expense report",
		SubmitterID: "emp-3",
		DataJSON:    `{"amount":100}`,
	})

	require.NoError(t, f.service.Launch(context.Background(), submission.Key))
	err := f.service.Launch(context.Background(), submission.Key)

	var already *AlreadyLaunchedError
	assert.ErrorAs(t, err, &already)
	assert.Equal(t, submission.Key, already.SubmissionKey)
	assert.Len(t, f.engine.Started, 1)
	assert.Len(t, f.store.ProcessInstances, 1)
}

func TestLaunchBadPayloadFailsBeforeEngineCall(t *testing.T) {
	f := newFixture(t)
	f.seedOrgChart()
	f.seedExpenseTemplate(t)
	submission := f.seedSubmission(t, storage.Submission{
		FormID:      7,
		FormName:    "Expense report",
		SubmitterID: "emp-3",
		DataJSON:    `{"amount":`,
	})

	err := f.service.Launch(context.Background(), submission.Key)

	var decodeErr *PayloadDecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Empty(t, f.engine.Started)
	assert.Empty(t, f.store.ProcessInstances)
}

func TestLaunchUnknownSubmission(t *testing.T) {
	f := newFixture(t)

	err := f.service.Launch(context.Background(), 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
