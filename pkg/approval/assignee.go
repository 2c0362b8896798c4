package approval

import (
	"context"
	"errors"
	"strconv"

	"github.com/ppmc/flowbridge/internal/log"
	"github.com/ppmc/flowbridge/pkg/engine"
)

const defaultManagerLevel = 1

// resolveAssignee runs on the engine's execution thread while an instance
// is mid-execution. It computes the dynamic approver from the submitter's
// manager chain and publishes it as the assignee variable. Failures are
// raised as business faults so the process definition can branch to its
// error handling path instead of crashing the instance.
func (s *Service) resolveAssignee(ctx context.Context, execution engine.ExecutionContext) error {
	submitterVar, ok := execution.Variable("submitterId")
	if !ok || submitterVar == nil {
		log.Errorf(ctx, "variable submitterId is not set, cannot resolve an approver for instance %s", execution.ProcessInstanceID())
		return engine.NewBusinessError(engine.FaultNoSubmitter, "submitter id not provided")
	}
	submitterID, ok := submitterVar.(string)
	if !ok || submitterID == "" {
		log.Errorf(ctx, "variable submitterId has unusable value %v on instance %s", submitterVar, execution.ProcessInstanceID())
		return engine.NewBusinessError(engine.FaultNoSubmitter, "submitter id not provided")
	}

	level := managerLevel(ctx, execution)

	log.Debugf(ctx, "resolving approver: submitter %s, level %d", submitterID, level)

	superior, err := s.ResolveSuperior(ctx, submitterID, level)
	if err != nil {
		var unknown *UnknownEmployeeError
		if errors.As(err, &unknown) {
			log.Errorf(ctx, "submitter %s not found in the organization store", submitterID)
			return engine.NewBusinessError(engine.FaultUserNotFound, "submitter %s does not exist", submitterID)
		}
		var tooShort *ChainTooShortError
		if errors.As(err, &tooShort) {
			log.Warnf(ctx, "manager chain of %s ends at level %d, level %d requested", submitterID, tooShort.Reached, level)
			return engine.NewBusinessError(engine.FaultManagerNotFound, "no level %d superior for %s", level, submitterID)
		}
		return err
	}

	execution.SetVariable("managerFound", true)
	execution.SetVariable("assignee", superior.ID)
	log.Infof(ctx, "resolved approver %s (%s) for submitter %s", superior.Name, superior.ID, submitterID)
	return nil
}

// managerLevel reads the optional managerLevel variable, accepting numeric
// and numeric string forms, and falls back to the default otherwise.
func managerLevel(ctx context.Context, execution engine.ExecutionContext) int {
	raw, ok := execution.Variable("managerLevel")
	if !ok || raw == nil {
		return defaultManagerLevel
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			log.Warnf(ctx, "cannot parse managerLevel %q, using default %d", v, defaultManagerLevel)
			return defaultManagerLevel
		}
		return parsed
	default:
		log.Warnf(ctx, "managerLevel has unsupported type %T, using default %d", raw, defaultManagerLevel)
		return defaultManagerLevel
	}
}
