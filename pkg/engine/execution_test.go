package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionTracksDelta(t *testing.T) {
	execution := NewExecution("inst-1", "approve-task", map[string]any{
		"submitterId": "emp-3",
		"stale":       true,
	})

	execution.SetVariable("assignee", "emp-2")
	execution.RemoveVariable("stale")

	assert.Equal(t, "inst-1", execution.ProcessInstanceID())
	assert.Equal(t, "approve-task", execution.ActivityKey())

	assignee, ok := execution.Variable("assignee")
	assert.True(t, ok)
	assert.Equal(t, "emp-2", assignee)
	_, ok = execution.Variable("stale")
	assert.False(t, ok)

	assert.Equal(t, []string{"stale"}, execution.Removed())
	assert.Equal(t, map[string]any{"submitterId": "emp-3", "assignee": "emp-2"}, execution.Variables())
}

func TestExecutionSetAfterRemoveClearsRemoval(t *testing.T) {
	execution := NewExecution("inst-1", "", map[string]any{"flag": true})

	execution.RemoveVariable("flag")
	execution.SetVariable("flag", false)

	assert.Empty(t, execution.Removed())
	flag, ok := execution.Variable("flag")
	assert.True(t, ok)
	assert.Equal(t, false, flag)
}

func TestExecutionWithNilVariables(t *testing.T) {
	execution := NewExecution("inst-1", "", nil)
	execution.SetVariable("a", 1)

	v, ok := execution.Variable("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
