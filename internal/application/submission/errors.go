package submission

import (
	"fmt"

	"github.com/jhoicas/docflow-erp/internal/domain/docflow"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// Step paso del flujo en el que ocurrió un fallo.
type Step string

const (
	StepValidation  Step = "validation"
	StepCompany     Step = "resolve-company"
	StepParty       Step = "resolve-party"
	StepItems       Step = "resolve-items"
	StepCreateDraft Step = "create-draft"
	StepSubmit      Step = "submit"
)

// EntityResolutionError fallo al consultar o crear una entidad maestra.
type EntityResolutionError struct {
	Kind       entity.EntityKind
	Identifier string
	Err        error
}

func (e *EntityResolutionError) Error() string {
	return fmt.Sprintf("resolve %s %q: %v", e.Kind, e.Identifier, e.Err)
}

func (e *EntityResolutionError) Unwrap() error { return e.Err }

// DocumentCreationError fallo al crear el borrador; el documento sigue Absent.
type DocumentCreationError struct {
	Kind entity.DocumentKind
	Err  error
}

func (e *DocumentCreationError) Error() string {
	return fmt.Sprintf("create %s draft: %v", e.Kind, e.Err)
}

func (e *DocumentCreationError) Unwrap() error { return e.Err }

// DocumentSubmissionError fallo al enviar; el borrador queda en el ERP sin cancelar.
type DocumentSubmissionError struct {
	Kind entity.DocumentKind
	ID   string
	Err  error
}

func (e *DocumentSubmissionError) Error() string {
	return fmt.Sprintf("submit %s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *DocumentSubmissionError) Unwrap() error { return e.Err }

// SubmissionError error clasificado que recibe el llamador del orquestador.
// Result es el resultado parcial (entidades y eventos acumulados hasta el fallo).
type SubmissionError struct {
	Step           Step
	Classification docflow.Classification
	Result         *WorkflowResult
	Err            error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Classification.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
