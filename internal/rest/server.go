package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppmc/flowbridge/internal/config"
	"github.com/ppmc/flowbridge/internal/log"
	"github.com/ppmc/flowbridge/internal/notify"
	apierror "github.com/ppmc/flowbridge/internal/rest/error"
	"github.com/ppmc/flowbridge/internal/rest/middleware"
	"github.com/ppmc/flowbridge/pkg/approval"
	"github.com/ppmc/flowbridge/pkg/engine"
)

type Server struct {
	approval *approval.Service
	hooks    engine.Hooks
	notifier *notify.Dispatcher
	name     string
	addr     string
	server   *http.Server
}

func NewServer(approvalService *approval.Service, notifier *notify.Dispatcher, conf config.Config) *Server {
	r := chi.NewRouter()
	s := Server{
		approval: approvalService,
		hooks:    approvalService.Hooks(),
		notifier: notifier,
		name:     conf.Name,
		addr:     conf.Server.Addr,
		server: &http.Server{
			ReadHeaderTimeout: 3 * time.Second,
			Handler:           r,
			Addr:              conf.Server.Addr,
		},
	}
	r.Use(middleware.Cors())
	r.Use(middleware.StripEmptyQueryParams())
	r.Use(middleware.Opentelemetry(conf))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/templates", s.registerTemplate)
		r.Post("/submissions/{submissionKey}/launch", s.launchSubmission)
		r.Post("/tasks/{taskId}/complete", s.completeTask)
		// callback surface the engine invokes at its trigger points
		r.Post("/engine/hooks/{trigger}", s.executionHook)
		r.Post("/engine/task-events", s.taskEventHook)
	})
	// register system endpoints
	r.Route("/system", func(r chi.Router) {
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
		r.Get("/status", s.status)
	})
	return &s
}

func (s *Server) Start() net.Listener {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		log.Error("failed to listen: %v", err)
	}
	log.Info("FlowBridge REST server listening on %s", s.addr)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("Error starting server: %s", err)
		}
	}()
	return listener
}

func (s *Server) Stop(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		log.Error("Error stopping server: %s", err)
	}
}

type registerTemplateRequest struct {
	FormID        int64  `json:"formId"`
	DefinitionKey string `json:"definitionKey"`
	Definition    string `json:"definition"`
}

type registerTemplateResponse struct {
	Key           int64  `json:"key"`
	FormID        int64  `json:"formId"`
	DefinitionKey string `json:"definitionKey"`
	DeploymentID  string `json:"deploymentId"`
}

func (s *Server) registerTemplate(w http.ResponseWriter, r *http.Request) {
	var req registerTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, apierror.ApiError{
			Message: err.Error(),
			Type:    "BAD_REQUEST",
		})
		return
	}
	if req.DefinitionKey == "" || req.Definition == "" {
		writeError(w, r, http.StatusBadRequest, apierror.ApiError{
			Message: "definitionKey and definition are required",
			Type:    "BAD_REQUEST",
		})
		return
	}
	template, err := s.approval.RegisterTemplate(r.Context(), req.FormID, req.Definition, req.DefinitionKey)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerTemplateResponse{
		Key:           template.Key,
		FormID:        template.FormID,
		DefinitionKey: template.DefinitionKey,
		DeploymentID:  template.DeploymentID,
	})
}

func (s *Server) launchSubmission(w http.ResponseWriter, r *http.Request) {
	submissionKey, err := strconv.ParseInt(chi.URLParam(r, "submissionKey"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, apierror.ApiError{
			Message: "submissionKey must be an integer",
			Type:    "BAD_REQUEST",
		})
		return
	}
	if err := s.approval.Launch(r.Context(), submissionKey); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type completeTaskRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, apierror.ApiError{
			Message: err.Error(),
			Type:    "BAD_REQUEST",
		})
		return
	}
	if err := s.approval.CompleteTask(r.Context(), taskID, approval.Decision(req.Decision), req.Comment); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Name              string `json:"name"`
	NotificationQueue int    `json:"notificationQueue"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Name:              s.name,
		NotificationQueue: s.notifier.QueueLen(),
	})
}

// writeDomainError translates service errors into HTTP responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var formErr *approval.FormNotFoundError
	var launchedErr *approval.AlreadyLaunchedError
	var decodeErr *approval.PayloadDecodeError
	var decisionErr *approval.UnknownDecisionError
	var engineErr *engine.EngineError
	switch {
	case errors.As(err, &formErr):
		writeError(w, r, http.StatusNotFound, apierror.ApiError{Message: err.Error(), Type: "FORM_NOT_FOUND"})
	case errors.As(err, &launchedErr):
		writeError(w, r, http.StatusConflict, apierror.ApiError{Message: err.Error(), Type: "ALREADY_LAUNCHED"})
	case errors.As(err, &decodeErr):
		writeError(w, r, http.StatusBadRequest, apierror.ApiError{Message: err.Error(), Type: "BAD_PAYLOAD"})
	case errors.As(err, &decisionErr):
		writeError(w, r, http.StatusBadRequest, apierror.ApiError{Message: err.Error(), Type: "UNKNOWN_DECISION"})
	case errors.Is(err, engine.ErrTaskNotFound):
		writeError(w, r, http.StatusNotFound, apierror.ApiError{Message: err.Error(), Type: "TASK_NOT_FOUND"})
	case errors.Is(err, engine.ErrInstanceNotFound):
		writeError(w, r, http.StatusNotFound, apierror.ApiError{Message: err.Error(), Type: "INSTANCE_NOT_FOUND"})
	case errors.As(err, &engineErr):
		writeError(w, r, http.StatusBadGateway, apierror.ApiError{Message: err.Error(), Type: "ENGINE_ERROR"})
	default:
		writeError(w, r, http.StatusInternalServerError, apierror.ApiError{Message: err.Error(), Type: "ERROR"})
	}
}

func writeJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	body, err := json.Marshal(resp)
	if err != nil {
		log.Error("Server error: %s", err)
	} else {
		w.Write(body)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, resp interface{}) {
	w.WriteHeader(status)
	body, err := json.Marshal(resp)
	if err != nil {
		log.Error("Server error: %s", err)
	} else {
		w.Write(body)
	}
}
