package approval

import (
	"context"

	"github.com/ppmc/flowbridge/internal/log"
	"github.com/ppmc/flowbridge/pkg/engine"
)

// onTaskEvent fires for every task lifecycle sub-event; only creation
// matters here. It resolves the business context of the new task through
// the mirror and fans out an email and an in-app notification. Nothing in
// this path may fail the engine's step: every failure is logged and
// swallowed.
func (s *Service) onTaskEvent(ctx context.Context, event engine.TaskContext) error {
	if event.EventName() != engine.TaskEventCreate {
		return nil
	}
	task := event.Task()

	if task.Assignee == "" {
		log.Warnf(ctx, "task %s has no assignee, skipping notifications", task.ID)
		return nil
	}

	instance, err := s.store.FindProcessInstanceByEngineId(ctx, task.ProcessInstanceID)
	if err != nil {
		log.Errorf(ctx, "no local instance for engine instance %s, task notification for %s not sent: %s", task.ProcessInstanceID, task.ID, err)
		return nil
	}
	submission, err := s.store.FindSubmissionByKey(ctx, instance.SubmissionKey)
	if err != nil {
		log.Errorf(ctx, "submission %d of instance %d not found, task notification for %s not sent: %s", instance.SubmissionKey, instance.Key, task.ID, err)
		return nil
	}

	submitterName := "unknown"
	if submitter, err := s.findEmployee(ctx, submission.SubmitterID); err == nil {
		submitterName = submitter.Name
	}

	to := task.Assignee + "@example.com"
	assigneeID := task.Assignee
	if assignee, err := s.findEmployee(ctx, task.Assignee); err == nil {
		to = employeeEmail(assignee)
		assigneeID = assignee.ID
	}

	s.notifier.NewTaskEmail(to, task.Name, submission.FormName, submitterName)
	s.notifier.NewTaskInApp(assigneeID, task.Name, submission.FormName, submitterName, "/tasks/"+task.ID)
	log.Infof(ctx, "notified %s about new task %s", assigneeID, task.ID)
	return nil
}
