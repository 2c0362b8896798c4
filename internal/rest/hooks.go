package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierror "github.com/ppmc/flowbridge/internal/rest/error"
	"github.com/ppmc/flowbridge/pkg/engine"
)

// hookRequest is the payload the engine posts when a trigger point fires.
// The engine hands over a snapshot of the instance's variable scope and
// applies the returned delta when the call comes back.
type hookRequest struct {
	ProcessInstanceID string         `json:"processInstanceId"`
	ActivityKey       string         `json:"activityKey"`
	Variables         map[string]any `json:"variables"`
}

type hookResponse struct {
	Variables map[string]any `json:"variables"`
	Removed   []string       `json:"removed,omitempty"`
}

type hookFault struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type taskEventRequest struct {
	EventName string      `json:"eventName"`
	Task      engine.Task `json:"task"`
}

func (s *Server) executionHook(w http.ResponseWriter, r *http.Request) {
	handler, ok := s.executionHandler(chi.URLParam(r, "trigger"))
	if !ok {
		writeError(w, r, http.StatusNotFound, apierror.ApiError{
			Message: "unknown trigger point",
			Type:    "UNKNOWN_TRIGGER",
		})
		return
	}
	var req hookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, apierror.ApiError{
			Message: err.Error(),
			Type:    "BAD_REQUEST",
		})
		return
	}
	execution := engine.NewExecution(req.ProcessInstanceID, req.ActivityKey, req.Variables)
	if err := handler(r.Context(), execution); err != nil {
		if businessErr, ok := engine.AsBusinessError(err); ok {
			writeError(w, r, http.StatusUnprocessableEntity, hookFault{
				Code:    businessErr.Code,
				Message: businessErr.Message,
			})
			return
		}
		writeError(w, r, http.StatusInternalServerError, apierror.ApiError{
			Message: err.Error(),
			Type:    "ERROR",
		})
		return
	}
	writeJSON(w, http.StatusOK, hookResponse{
		Variables: execution.Variables(),
		Removed:   execution.Removed(),
	})
}

func (s *Server) taskEventHook(w http.ResponseWriter, r *http.Request) {
	var req taskEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, apierror.ApiError{
			Message: err.Error(),
			Type:    "BAD_REQUEST",
		})
		return
	}
	event := engine.NewTaskEvent(engine.TaskEventName(req.EventName), req.Task)
	if err := s.hooks.OnTaskEvent(r.Context(), event); err != nil {
		writeError(w, r, http.StatusInternalServerError, apierror.ApiError{
			Message: err.Error(),
			Type:    "ERROR",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) executionHandler(trigger string) (engine.ExecutionHandler, bool) {
	var handler engine.ExecutionHandler
	switch trigger {
	case "resolve-assignee":
		handler = s.hooks.OnResolveAssignee
	case "timer-escalation":
		handler = s.hooks.OnTimerEscalation
	case "overdue-email":
		handler = s.hooks.OnOverdueEmail
	case "overdue-inapp":
		handler = s.hooks.OnOverdueInApp
	case "process-approved":
		handler = s.hooks.OnProcessApproved
	case "process-rejected":
		handler = s.hooks.OnProcessRejected
	}
	return handler, handler != nil
}
