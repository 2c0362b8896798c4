package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(HTTPClientConfig{Endpoint: server.URL, Tenant: "acme"})
}

func TestDeploySendsTenantAndResource(t *testing.T) {
	var received deployRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/process-definitions", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Correlation-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(deployResponse{DeploymentID: "dep-1"})
	})

	deploymentID, err := client.Deploy(context.Background(), "Deployment for form: Expense report", "expense-v1.bpmn", "<definitions/>")
	require.NoError(t, err)

	assert.Equal(t, "dep-1", deploymentID)
	assert.Equal(t, "acme", received.Tenant)
	assert.Equal(t, "expense-v1.bpmn", received.ResourceName)
	assert.Equal(t, "<definitions/>", received.Definition)
}

func TestStartInstanceReturnsEngineHandle(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/process-instances", r.URL.Path)
		var req startInstanceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "expense-v1", req.ProcessDefinitionKey)
		assert.Equal(t, "emp-3", req.Variables["submitterId"])
		json.NewEncoder(w).Encode(startInstanceResponse{ProcessInstanceID: "inst-1"})
	})

	instanceID, err := client.StartInstance(context.Background(), "expense-v1", map[string]any{"submitterId": "emp-3"})
	require.NoError(t, err)
	assert.Equal(t, "inst-1", instanceID)
}

func TestCompleteTaskNotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.CompleteTask(context.Background(), "t-1", map[string]any{"approved": true})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestVariablesNotFoundMapsToInstanceSentinel(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Variables(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestTasksByInstanceAndActivityQuery(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tasks", r.URL.Path)
		assert.Equal(t, "inst-1", r.URL.Query().Get("processInstanceId"))
		assert.Equal(t, "approve-task", r.URL.Query().Get("activityKey"))
		json.NewEncoder(w).Encode(taskListResponse{Items: []Task{{ID: "t-1", Assignee: "emp-2"}}})
	})

	tasks, err := client.TasksByInstanceAndActivity(context.Background(), "inst-1", "approve-task")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t-1", tasks[0].ID)
}

func TestServerErrorWrapsIntoEngineError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.StartInstance(context.Background(), "expense-v1", nil)
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Contains(t, engineErr.Error(), "500")
}

func TestSetAssigneePutsAssignee(t *testing.T) {
	var body map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/tasks/t-1/assignee", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	})

	require.NoError(t, client.SetAssignee(context.Background(), "t-1", "emp-1"))
	assert.Equal(t, "emp-1", body["assignee"])
}
