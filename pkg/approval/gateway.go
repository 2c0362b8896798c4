package approval

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Decision is a human verdict on an open task.
type Decision string

const (
	DecisionApproved          Decision = "APPROVED"
	DecisionRejected          Decision = "REJECTED"
	DecisionReturnToInitiator Decision = "RETURN_TO_INITIATOR"
	DecisionReturnToPrevious  Decision = "RETURN_TO_PREVIOUS"
)

// outcome maps a decision onto the variable vocabulary the process
// definitions branch on.
func (d Decision) outcome() (string, bool) {
	switch d {
	case DecisionApproved:
		return "approved", true
	case DecisionRejected:
		return "rejected", true
	case DecisionReturnToInitiator:
		return "returnToInitiator", true
	case DecisionReturnToPrevious:
		return "returnToPrevious", true
	}
	return "", false
}

// CompleteTask forwards a decision to the engine's task completion. Whether
// the caller is the task's rightful assignee is checked by the authorization
// layer in front of this call, not here.
func (s *Service) CompleteTask(ctx context.Context, engineTaskID string, decision Decision, comment string) error {
	ctx, span := s.tracer.Start(ctx, "complete-task", trace.WithAttributes(
		attribute.String("task.id", engineTaskID),
		attribute.String("task.decision", string(decision)),
	))
	defer span.End()

	outcome, ok := decision.outcome()
	if !ok {
		err := &UnknownDecisionError{Decision: decision}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	approved := decision == DecisionApproved
	variables := map[string]any{
		"taskOutcome": outcome,
		"approved":    approved,
		// older process definitions branch on this variable
		"passed": approved,
	}
	if comment != "" {
		variables["approvalComment"] = comment
	}

	if err := s.engine.CompleteTask(ctx, engineTaskID, variables); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
