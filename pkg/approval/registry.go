package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppmc/flowbridge/internal/log"
	"github.com/ppmc/flowbridge/pkg/storage"
)

// RegisterTemplate registers the definition source with the engine under a
// resource name derived from definitionKey and upserts the local template
// row bound to formID. At most one template exists per form, last write
// wins.
//
// The engine deployment and the local upsert are not one transaction: when
// the upsert fails after the engine accepted the deployment, the engine side
// deployment is orphaned.
func (s *Service) RegisterTemplate(ctx context.Context, formID int64, definitionSource string, definitionKey string) (storage.ProcessTemplate, error) {
	ctx, span := s.tracer.Start(ctx, "register-template", trace.WithAttributes(
		attribute.Int64("form.id", formID),
		attribute.String("process.definition_key", definitionKey),
	))
	defer span.End()

	formName, err := s.store.FindFormName(ctx, formID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = &FormNotFoundError{FormID: formID}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.ProcessTemplate{}, err
	}

	deploymentID, err := s.engine.Deploy(ctx,
		fmt.Sprintf("Deployment for form: %s", formName),
		definitionKey+".bpmn",
		definitionSource,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.ProcessTemplate{}, fmt.Errorf("failed to deploy process definition %s: %w", definitionKey, err)
	}

	now := time.Now()
	template, err := s.store.FindProcessTemplateByFormId(ctx, formID)
	if errors.Is(err, storage.ErrNotFound) {
		template = storage.ProcessTemplate{
			Key:       s.store.GenerateKey(),
			FormID:    formID,
			CreatedAt: now,
		}
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.ProcessTemplate{}, err
	}

	template.DefinitionKey = definitionKey
	template.DefinitionSource = definitionSource
	template.DeploymentID = deploymentID
	template.UpdatedAt = now

	if err := s.store.SaveProcessTemplate(ctx, template); err != nil {
		// the engine accepted the deployment already, nothing compensates it
		log.Errorf(ctx, "failed to save template for form %d, engine deployment %s is orphaned: %s", formID, deploymentID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.ProcessTemplate{}, err
	}

	log.Infof(ctx, "registered process template %s for form %d (deployment %s)", definitionKey, formID, deploymentID)
	return template, nil
}
