package approval

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppmc/flowbridge/pkg/engine"
	"github.com/ppmc/flowbridge/pkg/erp"
	"github.com/ppmc/flowbridge/pkg/storage"
)

// Notifier is the notification fan-out surface the service depends on. All
// methods are fire and forget.
type Notifier interface {
	NewTaskEmail(to string, taskName string, formName string, submitterName string)
	NewTaskInApp(userID string, taskName string, formName string, submitterName string, link string)
	OverdueEmail(to string, recipientName string, taskName string, formName string, originalAssigneeName string)
	OverdueInApp(userID string, formName string, submitterName string, link string)
}

const (
	defaultEmployeeCacheSize = 1024
	defaultEmployeeCacheTTL  = time.Minute
)

type Service struct {
	engine   engine.Client
	store    storage.Storage
	notifier Notifier
	erp      erp.Service
	metrics  *Metrics
	tracer   trace.Tracer

	employeeCache *expirable.LRU[string, storage.Employee]
}

type ServiceOption = func(*Service)

func WithMetrics(metrics *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = metrics }
}

func WithEmployeeCache(size int, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.employeeCache = expirable.NewLRU[string, storage.Employee](size, nil, ttl)
	}
}

func NewService(engineClient engine.Client, store storage.Storage, notifier Notifier, erpService erp.Service, options ...ServiceOption) *Service {
	s := &Service{
		engine:        engineClient,
		store:         store,
		notifier:      notifier,
		erp:           erpService,
		tracer:        otel.GetTracerProvider().Tracer("approval-service"),
		employeeCache: expirable.NewLRU[string, storage.Employee](defaultEmployeeCacheSize, nil, defaultEmployeeCacheTTL),
	}
	for _, option := range options {
		option(s)
	}
	if s.metrics == nil {
		metrics, _ := NewMetrics(otel.GetMeterProvider().Meter("approval-service"))
		s.metrics = metrics
	}
	return s
}

// Hooks returns the hook set to register with the engine.
func (s *Service) Hooks() engine.Hooks {
	return engine.Hooks{
		OnResolveAssignee: s.resolveAssignee,
		OnTimerEscalation: s.escalateTask,
		OnOverdueEmail:    s.notifyOverdueByEmail,
		OnOverdueInApp:    s.notifyOverdueInApp,
		OnProcessApproved: s.archiveApproved,
		OnProcessRejected: s.archiveRejected,
		OnTaskEvent:       s.onTaskEvent,
	}
}

// findEmployee reads through the expirable cache. Employee records change
// rarely relative to how often the hooks walk manager chains.
func (s *Service) findEmployee(ctx context.Context, id string) (storage.Employee, error) {
	if employee, ok := s.employeeCache.Get(id); ok {
		return employee, nil
	}
	employee, err := s.store.FindEmployeeById(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Employee{}, &UnknownEmployeeError{EmployeeID: id}
		}
		return storage.Employee{}, err
	}
	s.employeeCache.Add(id, employee)
	return employee, nil
}

// employeeEmail falls back to the id based address convention of the
// organization when no address is stored.
func employeeEmail(employee storage.Employee) string {
	if employee.Email != "" {
		return employee.Email
	}
	return employee.ID + "@example.com"
}
