package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmc/flowbridge/pkg/engine"
)

func TestCompleteTaskVariableMapping(t *testing.T) {
	tests := []struct {
		decision Decision
		outcome  string
		approved bool
	}{
		{DecisionApproved, "approved", true},
		{DecisionRejected, "rejected", false},
		{DecisionReturnToInitiator, "returnToInitiator", false},
		{DecisionReturnToPrevious, "returnToPrevious", false},
	}
	for _, test := range tests {
		t.Run(string(test.decision), func(t *testing.T) {
			f := newFixture(t)
			task := f.engine.AddTask(engine.Task{Name: "Approve", ProcessInstanceID: "inst-1", ActivityKey: "approve-task", Assignee: "emp-2"})

			err := f.service.CompleteTask(context.Background(), task.ID, test.decision, "looks fine")
			require.NoError(t, err)

			variables := f.engine.CompletedTasks[task.ID]
			require.NotNil(t, variables)
			assert.Equal(t, test.outcome, variables["taskOutcome"])
			assert.Equal(t, test.approved, variables["approved"])
			assert.Equal(t, test.approved, variables["passed"])
			assert.Equal(t, "looks fine", variables["approvalComment"])
		})
	}
}

func TestCompleteTaskOmitsEmptyComment(t *testing.T) {
	f := newFixture(t)
	task := f.engine.AddTask(engine.Task{Name: "Approve", ProcessInstanceID: "inst-1", ActivityKey: "approve-task", Assignee: "emp-2"})

	err := f.service.CompleteTask(context.Background(), task.ID, DecisionApproved, "")
	require.NoError(t, err)

	_, hasComment := f.engine.CompletedTasks[task.ID]["approvalComment"]
	assert.False(t, hasComment)
}

func TestCompleteTaskUnknownDecision(t *testing.T) {
	f := newFixture(t)
	task := f.engine.AddTask(engine.Task{Name: "Approve", ProcessInstanceID: "inst-1", ActivityKey: "approve-task"})

	err := f.service.CompleteTask(context.Background(), task.ID, Decision("MAYBE"), "")

	var unknown *UnknownDecisionError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, 1, f.engine.OpenTaskCount())
}

func TestCompleteTaskMissingTask(t *testing.T) {
	f := newFixture(t)

	err := f.service.CompleteTask(context.Background(), "no-such-task", DecisionApproved, "")
	assert.ErrorIs(t, err, engine.ErrTaskNotFound)
}
