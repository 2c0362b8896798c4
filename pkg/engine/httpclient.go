package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClientConfig holds the connection details of the engine's REST API.
type HTTPClientConfig struct {
	Endpoint string
	Tenant   string
	Timeout  time.Duration
}

// HTTPClient implements Client against the engine's REST API.
type HTTPClient struct {
	endpoint string
	tenant   string
	client   *http.Client
	logger   hclog.Logger
}

var _ Client = &HTTPClient{}

func NewHTTPClient(conf HTTPClientConfig) *HTTPClient {
	timeout := conf.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		endpoint: conf.Endpoint,
		tenant:   conf.Tenant,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: hclog.Default().Named("engine-client"),
	}
}

type deployRequest struct {
	Name         string `json:"name"`
	ResourceName string `json:"resourceName"`
	Definition   string `json:"definition"`
	Tenant       string `json:"tenant,omitempty"`
}

type deployResponse struct {
	DeploymentID string `json:"deploymentId"`
}

func (c *HTTPClient) Deploy(ctx context.Context, name string, resourceName string, definition string) (string, error) {
	var resp deployResponse
	err := c.do(ctx, http.MethodPost, "/v1/process-definitions", deployRequest{
		Name:         name,
		ResourceName: resourceName,
		Definition:   definition,
		Tenant:       c.tenant,
	}, &resp)
	if err != nil {
		return "", err
	}
	c.logger.Debug("deployed process definition", "resource", resourceName, "deployment", resp.DeploymentID)
	return resp.DeploymentID, nil
}

type startInstanceRequest struct {
	ProcessDefinitionKey string         `json:"processDefinitionKey"`
	Variables            map[string]any `json:"variables,omitempty"`
}

type startInstanceResponse struct {
	ProcessInstanceID string `json:"processInstanceId"`
}

func (c *HTTPClient) StartInstance(ctx context.Context, definitionKey string, variables map[string]any) (string, error) {
	var resp startInstanceResponse
	err := c.do(ctx, http.MethodPost, "/v1/process-instances", startInstanceRequest{
		ProcessDefinitionKey: definitionKey,
		Variables:            variables,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ProcessInstanceID, nil
}

func (c *HTTPClient) CompleteTask(ctx context.Context, taskID string, variables map[string]any) error {
	path := fmt.Sprintf("/v1/tasks/%s/complete", url.PathEscape(taskID))
	return c.do(ctx, http.MethodPost, path, map[string]any{"variables": variables}, nil)
}

func (c *HTTPClient) SetAssignee(ctx context.Context, taskID string, assignee string) error {
	path := fmt.Sprintf("/v1/tasks/%s/assignee", url.PathEscape(taskID))
	return c.do(ctx, http.MethodPut, path, map[string]any{"assignee": assignee}, nil)
}

type taskListResponse struct {
	Items []Task `json:"items"`
}

func (c *HTTPClient) TasksByInstanceAndActivity(ctx context.Context, processInstanceID string, activityKey string) ([]Task, error) {
	q := url.Values{}
	q.Set("processInstanceId", processInstanceID)
	q.Set("activityKey", activityKey)
	var resp taskListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tasks?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *HTTPClient) TasksByAssignee(ctx context.Context, assignee string) ([]Task, error) {
	q := url.Values{}
	q.Set("assignee", assignee)
	var resp taskListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tasks?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *HTTPClient) Variables(ctx context.Context, processInstanceID string) (map[string]any, error) {
	path := fmt.Sprintf("/v1/process-instances/%s/variables", url.PathEscape(processInstanceID))
	variables := map[string]any{}
	if err := c.do(ctx, http.MethodGet, path, nil, &variables); err != nil {
		return nil, err
	}
	return variables, nil
}

func (c *HTTPClient) SetVariables(ctx context.Context, processInstanceID string, variables map[string]any) error {
	path := fmt.Sprintf("/v1/process-instances/%s/variables", url.PathEscape(processInstanceID))
	return c.do(ctx, http.MethodPatch, path, variables, nil)
}

func (c *HTTPClient) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &EngineError{Msg: "failed to encode engine request", Err: err}
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return &EngineError{Msg: "failed to build engine request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return &EngineError{Msg: fmt.Sprintf("engine call %s %s failed", method, path), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return c.notFound(path)
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return newEngineErrorf("engine call %s %s returned %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &EngineError{Msg: fmt.Sprintf("failed to decode engine response for %s %s", method, path), Err: err}
	}
	return nil
}

func (c *HTTPClient) notFound(path string) error {
	if len(path) >= len("/v1/tasks") && path[:len("/v1/tasks")] == "/v1/tasks" {
		return ErrTaskNotFound
	}
	return ErrInstanceNotFound
}
