package approval

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppmc/flowbridge/internal/log"
	"github.com/ppmc/flowbridge/pkg/engine"
)

// openTimedOutTask locates the still open task the elapsed boundary timer
// was attached to. The hook executes on a service node behind the timer, so
// the lookup must filter by instance and the originating user task's
// definition key. A nil task with nil error means the task was completed
// before the timer fired, which is an expected race.
func (s *Service) openTimedOutTask(ctx context.Context, execution engine.ExecutionContext) (*engine.Task, error) {
	tasks, err := s.engine.TasksByInstanceAndActivity(ctx, execution.ProcessInstanceID(), execution.ActivityKey())
	if err != nil {
		return nil, fmt.Errorf("failed to query open tasks for instance %s activity %s: %w",
			execution.ProcessInstanceID(), execution.ActivityKey(), err)
	}
	if len(tasks) == 0 {
		log.Debugf(ctx, "no open task for instance %s activity %s, already handled before the timer fired",
			execution.ProcessInstanceID(), execution.ActivityKey())
		return nil, nil
	}
	return &tasks[0], nil
}

// instanceText pulls the display context the overdue texts need out of the
// instance's variable scope.
func instanceText(execution engine.ExecutionContext) (formName string, submitterName string) {
	if v, ok := execution.Variable("formName"); ok {
		formName, _ = v.(string)
	}
	if v, ok := execution.Variable("submitterName"); ok {
		submitterName, _ = v.(string)
	}
	return formName, submitterName
}

// escalateTask fires when a boundary timer on a pending task elapses. The
// task is reassigned to the current assignee's direct superior when one
// exists, and overdue notifications go out on both channels.
func (s *Service) escalateTask(ctx context.Context, execution engine.ExecutionContext) error {
	ctx, span := s.tracer.Start(ctx, "escalate-task", trace.WithAttributes(
		attribute.String("process.instance_id", execution.ProcessInstanceID()),
		attribute.String("process.activity_key", execution.ActivityKey()),
	))
	defer span.End()

	task, err := s.openTimedOutTask(ctx, execution)
	if err != nil || task == nil {
		return err
	}
	if task.Assignee == "" {
		log.Warnf(ctx, "task %s has no assignee, cannot escalate", task.ID)
		return nil
	}

	assignee, err := s.findEmployee(ctx, task.Assignee)
	if err != nil {
		log.Errorf(ctx, "data inconsistency: assignee %s of task %s not found in the organization store", task.Assignee, task.ID)
		return nil
	}

	formName, submitterName := instanceText(execution)

	if assignee.ManagerID == "" {
		log.Warnf(ctx, "employee %s has no superior, task %s stays with them", assignee.ID, task.ID)
		s.notifier.OverdueEmail(employeeEmail(assignee), assignee.Name, task.Name, formName, assignee.Name)
		s.notifier.OverdueInApp(assignee.ID, formName, submitterName, "/tasks/"+task.ID)
		return nil
	}

	superior, err := s.findEmployee(ctx, assignee.ManagerID)
	if err != nil {
		log.Errorf(ctx, "data inconsistency: superior %s of employee %s not found, task %s stays assigned", assignee.ManagerID, assignee.ID, task.ID)
		s.notifier.OverdueEmail(employeeEmail(assignee), assignee.Name, task.Name, formName, assignee.Name)
		s.notifier.OverdueInApp(assignee.ID, formName, submitterName, "/tasks/"+task.ID)
		return nil
	}

	if err := s.engine.SetAssignee(ctx, task.ID, superior.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to reassign task %s to %s: %w", task.ID, superior.ID, err)
	}
	s.metrics.TasksEscalated.Add(ctx, 1)
	log.Infof(ctx, "task %s escalated from %s to superior %s", task.ID, assignee.ID, superior.ID)

	s.notifier.OverdueEmail(employeeEmail(superior), superior.Name, task.Name, formName, assignee.Name)
	s.notifier.OverdueInApp(superior.ID, formName, submitterName, "/tasks/"+task.ID)
	return nil
}

// notifyOverdueByEmail is the email only timer variant: it reminds the
// current assignee without reassigning the task.
func (s *Service) notifyOverdueByEmail(ctx context.Context, execution engine.ExecutionContext) error {
	task, err := s.openTimedOutTask(ctx, execution)
	if err != nil || task == nil {
		return err
	}
	if task.Assignee == "" {
		log.Warnf(ctx, "task %s has no assignee, cannot send overdue mail", task.ID)
		return nil
	}

	assignee, err := s.findEmployee(ctx, task.Assignee)
	if err != nil {
		log.Warnf(ctx, "assignee %s of task %s not found, cannot send overdue mail", task.Assignee, task.ID)
		return nil
	}

	formName, _ := instanceText(execution)
	s.notifier.OverdueEmail(employeeEmail(assignee), assignee.Name, task.Name, formName, assignee.Name)
	log.Infof(ctx, "sent overdue mail for task %s to assignee %s", task.ID, task.Assignee)
	return nil
}

// notifyOverdueInApp is the in-app only timer variant.
func (s *Service) notifyOverdueInApp(ctx context.Context, execution engine.ExecutionContext) error {
	task, err := s.openTimedOutTask(ctx, execution)
	if err != nil || task == nil {
		return err
	}
	if task.Assignee == "" {
		log.Warnf(ctx, "task %s has no assignee, cannot create overdue notification", task.ID)
		return nil
	}

	formName, submitterName := instanceText(execution)
	s.notifier.OverdueInApp(task.Assignee, formName, submitterName, "/tasks/"+task.ID)
	log.Infof(ctx, "created overdue notification for task %s assignee %s", task.ID, task.Assignee)
	return nil
}
