package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmc/flowbridge/pkg/engine"
	"github.com/ppmc/flowbridge/pkg/erp"
	"github.com/ppmc/flowbridge/pkg/storage"
)

// launchedFixture runs a full launch so the mirror row exists the way the
// archival hooks expect it.
func launchedFixture(t *testing.T, payload string) (*fixture, storage.Submission, string) {
	t.Helper()
	f := newFixture(t)
	f.seedOrgChart()
	f.seedExpenseTemplate(t)
	submission := f.seedSubmission(t, storage.Submission{
		FormID:      7,
		FormName:    "Expense report",
		SubmitterID: "emp-3",
		DataJSON:    payload,
		Status:      storage.SubmissionStatusPending,
	})
	require.NoError(t, f.service.Launch(context.Background(), submission.Key))
	require.Len(t, f.engine.Started, 1)
	return f, submission, f.engine.Started[0].ID
}

func TestArchiveApprovedFinalizesMirror(t *testing.T) {
	f, submission, engineInstanceID := launchedFixture(t, `{"materialSku":"SKU-9","quantity":3}`)
	execution := f.engine.NewExecution(engineInstanceID, "")

	err := f.service.archiveApproved(context.Background(), execution)
	require.NoError(t, err)

	instance, err := f.store.FindProcessInstanceByEngineId(context.Background(), engineInstanceID)
	require.NoError(t, err)
	assert.Equal(t, storage.InstanceStatusApproved, instance.Status)
	require.NotNil(t, instance.CompletedAt)

	stored, err := f.store.FindSubmissionByKey(context.Background(), submission.Key)
	require.NoError(t, err)
	assert.Equal(t, storage.SubmissionStatusApproved, stored.Status)

	require.Len(t, f.erp.Deductions, 1)
	assert.Equal(t, erp.DeductionRequest{SKU: "SKU-9", Quantity: 3}, f.erp.Deductions[0])
}

func TestArchiveApprovedWithoutInventoryVariables(t *testing.T) {
	f, _, engineInstanceID := launchedFixture(t, `{"amount":100}`)
	execution := f.engine.NewExecution(engineInstanceID, "")

	err := f.service.archiveApproved(context.Background(), execution)
	require.NoError(t, err)
	assert.Empty(t, f.erp.Deductions)
}

func TestArchiveApprovedDeductionFailurePropagates(t *testing.T) {
	f, _, engineInstanceID := launchedFixture(t, `{"materialSku":"SKU-9","quantity":3}`)
	f.erp.FailWith = errors.New("erp down")
	execution := f.engine.NewExecution(engineInstanceID, "")

	err := f.service.archiveApproved(context.Background(), execution)
	assert.Error(t, err)
}

func TestArchiveRejectedFinalizesMirror(t *testing.T) {
	f, submission, engineInstanceID := launchedFixture(t, `{"materialSku":"SKU-9","quantity":3}`)
	execution := f.engine.NewExecution(engineInstanceID, "")

	err := f.service.archiveRejected(context.Background(), execution)
	require.NoError(t, err)

	instance, err := f.store.FindProcessInstanceByEngineId(context.Background(), engineInstanceID)
	require.NoError(t, err)
	assert.Equal(t, storage.InstanceStatusRejected, instance.Status)

	stored, err := f.store.FindSubmissionByKey(context.Background(), submission.Key)
	require.NoError(t, err)
	assert.Equal(t, storage.SubmissionStatusRejected, stored.Status)
	assert.Empty(t, f.erp.Deductions)
}

func TestRepeatedArchivalOnSamePathIsNoOp(t *testing.T) {
	f, _, engineInstanceID := launchedFixture(t, `{"materialSku":"SKU-9","quantity":3}`)
	execution := f.engine.NewExecution(engineInstanceID, "")

	require.NoError(t, f.service.archiveApproved(context.Background(), execution))
	first, err := f.store.FindProcessInstanceByEngineId(context.Background(), engineInstanceID)
	require.NoError(t, err)

	require.NoError(t, f.service.archiveApproved(context.Background(), execution))

	second, err := f.store.FindProcessInstanceByEngineId(context.Background(), engineInstanceID)
	require.NoError(t, err)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)
	// the downstream deduction does not run twice
	assert.Len(t, f.erp.Deductions, 1)
}

func TestConflictingArchivalIsRefused(t *testing.T) {
	f, _, engineInstanceID := launchedFixture(t, `{"amount":100}`)
	execution := f.engine.NewExecution(engineInstanceID, "")

	require.NoError(t, f.service.archiveApproved(context.Background(), execution))
	err := f.service.archiveRejected(context.Background(), execution)

	businessErr, ok := engine.AsBusinessError(err)
	require.True(t, ok)
	assert.Equal(t, engine.FaultDataInconsistency, businessErr.Code)

	instance, err := f.store.FindProcessInstanceByEngineId(context.Background(), engineInstanceID)
	require.NoError(t, err)
	assert.Equal(t, storage.InstanceStatusApproved, instance.Status)
}

func TestArchivalWithoutMirrorRowRaisesFault(t *testing.T) {
	f := newFixture(t)
	execution := f.engine.NewExecution("ghost-instance", "")

	err := f.service.archiveApproved(context.Background(), execution)

	businessErr, ok := engine.AsBusinessError(err)
	require.True(t, ok)
	assert.Equal(t, engine.FaultDataInconsistency, businessErr.Code)
}
