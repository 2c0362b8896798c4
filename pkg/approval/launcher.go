package approval

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppmc/flowbridge/internal/log"
	"github.com/ppmc/flowbridge/pkg/storage"
)

// Launch starts a process instance for the given submission. Submissions
// whose form has no template are process free: Launch is a no-op for them.
//
// The engine start and the creation of the local mirror row are not one
// transaction: when the local write fails after the engine started the
// instance, the engine side instance is orphaned. The error is returned so
// the caller does not treat the submission as launched.
func (s *Service) Launch(ctx context.Context, submissionKey int64) error {
	ctx, span := s.tracer.Start(ctx, "launch-instance", trace.WithAttributes(
		attribute.Int64("submission.key", submissionKey),
	))
	defer span.End()

	submission, err := s.store.FindSubmissionByKey(ctx, submissionKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	template, err := s.store.FindProcessTemplateByFormId(ctx, submission.FormID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Debugf(ctx, "form %d has no process template, skipping launch for submission %d", submission.FormID, submissionKey)
		return nil
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if submission.InstanceKey != 0 {
		err := &AlreadyLaunchedError{SubmissionKey: submissionKey, InstanceKey: submission.InstanceKey}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	variables := map[string]any{}
	if err := json.Unmarshal([]byte(submission.DataJSON), &variables); err != nil {
		decodeErr := &PayloadDecodeError{SubmissionKey: submissionKey, Err: err}
		span.RecordError(decodeErr)
		span.SetStatus(codes.Error, decodeErr.Error())
		return decodeErr
	}

	submitter, err := s.findEmployee(ctx, submission.SubmitterID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	variables["submitterId"] = submission.SubmitterID
	variables["submissionId"] = submission.Key
	variables["submitterName"] = submitter.Name
	variables["formName"] = submission.FormName
	variables["initiator"] = submission.SubmitterID
	if submitter.ManagerID != "" {
		variables["managerId"] = submitter.ManagerID
	}

	engineInstanceID, err := s.engine.StartInstance(ctx, template.DefinitionKey, variables)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	instance := storage.ProcessInstance{
		Key:              s.store.GenerateKey(),
		TemplateKey:      template.Key,
		SubmissionKey:    submission.Key,
		EngineInstanceID: engineInstanceID,
		Status:           storage.InstanceStatusProcessing,
		CreatedAt:        time.Now(),
	}
	if err := s.store.SaveProcessInstance(ctx, instance); err != nil {
		// engine instance engineInstanceID keeps running without a mirror row
		log.Errorf(ctx, "failed to mirror engine instance %s for submission %d, instance is orphaned: %s", engineInstanceID, submissionKey, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	submission.InstanceKey = instance.Key
	if err := s.store.SaveSubmission(ctx, submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.metrics.InstancesLaunched.Add(ctx, 1)
	log.Infof(ctx, "launched process instance %s (definition %s) for submission %d", engineInstanceID, template.DefinitionKey, submissionKey)
	return nil
}
