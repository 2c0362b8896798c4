package approval

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppmc/flowbridge/internal/log"
	"github.com/ppmc/flowbridge/pkg/engine"
	"github.com/ppmc/flowbridge/pkg/erp"
	"github.com/ppmc/flowbridge/pkg/storage"
)

// archiveApproved fires once when the engine finishes an instance along the
// approved path. It finalizes the mirror row, moves the submission's own
// status in lockstep and triggers the downstream inventory deduction. A
// deduction failure propagates so the engine's step and the local status
// change roll back together: approval without the downstream effect is an
// invalid end state.
func (s *Service) archiveApproved(ctx context.Context, execution engine.ExecutionContext) error {
	ctx, span := s.tracer.Start(ctx, "archive-approved", trace.WithAttributes(
		attribute.String("process.instance_id", execution.ProcessInstanceID()),
	))
	defer span.End()

	instance, submission, repeat, err := s.finalize(ctx, execution.ProcessInstanceID(), storage.InstanceStatusApproved, storage.SubmissionStatusApproved)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if repeat {
		return nil
	}

	if err := s.deductInventory(ctx, execution); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.metrics.InstancesApproved.Add(ctx, 1)
	log.Infof(ctx, "instance %d archived as APPROVED, submission %d synced", instance.Key, submission.Key)
	return nil
}

// archiveRejected is the rejected path counterpart, without a downstream
// side effect.
func (s *Service) archiveRejected(ctx context.Context, execution engine.ExecutionContext) error {
	ctx, span := s.tracer.Start(ctx, "archive-rejected", trace.WithAttributes(
		attribute.String("process.instance_id", execution.ProcessInstanceID()),
	))
	defer span.End()

	instance, submission, repeat, err := s.finalize(ctx, execution.ProcessInstanceID(), storage.InstanceStatusRejected, storage.SubmissionStatusRejected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if repeat {
		return nil
	}

	s.metrics.InstancesRejected.Add(ctx, 1)
	log.Infof(ctx, "instance %d archived as REJECTED, submission %d synced", instance.Key, submission.Key)
	return nil
}

// finalize moves the mirror row and its submission to the given terminal
// status. A missing mirror row is a non-recoverable divergence between the
// engine and the mirror and raises a DATA_INCONSISTENCY fault. A repeated
// invocation for an instance already terminal on the same path is a no-op;
// a conflicting terminal status is never overwritten.
func (s *Service) finalize(ctx context.Context, engineInstanceID string, status storage.InstanceStatus, submissionStatus storage.SubmissionStatus) (storage.ProcessInstance, storage.Submission, bool, error) {
	instance, err := s.store.FindProcessInstanceByEngineId(ctx, engineInstanceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Errorf(ctx, "no local instance mirrors engine instance %s, the mirror is permanently stale", engineInstanceID)
			return storage.ProcessInstance{}, storage.Submission{}, false,
				engine.NewBusinessError(engine.FaultDataInconsistency, "no local instance for engine instance %s", engineInstanceID)
		}
		return storage.ProcessInstance{}, storage.Submission{}, false, err
	}

	if instance.Status.IsTerminal() {
		if instance.Status == status {
			log.Warnf(ctx, "instance %d is already %s, ignoring repeated archival", instance.Key, status)
			return instance, storage.Submission{}, true, nil
		}
		log.Errorf(ctx, "instance %d is already %s, refusing to overwrite with %s", instance.Key, instance.Status, status)
		return storage.ProcessInstance{}, storage.Submission{}, false,
			engine.NewBusinessError(engine.FaultDataInconsistency, "instance %d already terminal as %s", instance.Key, instance.Status)
	}

	now := time.Now()
	instance.Status = status
	instance.CompletedAt = &now
	if err := s.store.SaveProcessInstance(ctx, instance); err != nil {
		return storage.ProcessInstance{}, storage.Submission{}, false, err
	}

	submission, err := s.store.FindSubmissionByKey(ctx, instance.SubmissionKey)
	if err != nil {
		return storage.ProcessInstance{}, storage.Submission{}, false, err
	}
	submission.Status = submissionStatus
	if err := s.store.SaveSubmission(ctx, submission); err != nil {
		return storage.ProcessInstance{}, storage.Submission{}, false, err
	}

	return instance, submission, false, nil
}

// deductInventory calls the ERP system with the sku and quantity carried in
// the instance's variables. Instances without them are not inventory
// related and skip the call.
func (s *Service) deductInventory(ctx context.Context, execution engine.ExecutionContext) error {
	skuVar, _ := execution.Variable("materialSku")
	sku, _ := skuVar.(string)
	quantityVar, _ := execution.Variable("quantity")
	quantity, ok := asInt(quantityVar)

	if sku == "" || !ok {
		log.Warnf(ctx, "instance %s carries no materialSku/quantity variables, skipping inventory deduction", execution.ProcessInstanceID())
		return nil
	}

	log.Infof(ctx, "deducting inventory: sku %s, quantity %d", sku, quantity)
	return s.erp.DeductInventory(ctx, erp.DeductionRequest{SKU: sku, Quantity: quantity})
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
