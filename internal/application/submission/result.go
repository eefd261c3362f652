package submission

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/docflow-erp/internal/domain/docflow"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// WorkflowResult resultado de una ejecución. Lo muta solo el orquestador;
// una vez devuelto al llamador no vuelve a cambiar.
type WorkflowResult struct {
	RunID            string
	Kind             entity.DocumentKind
	DocumentID       string
	FinalState       string // entity.FinalState*
	Currency         string
	Total            decimal.Decimal
	ResolvedEntities []entity.EntityRef
	Events           []entity.StatusEvent
	Warnings         []string
	Failure          *Failure
}

// Failure detalle del fallo clasificado, nil si la ejecución terminó en Submitted.
type Failure struct {
	Step        Step
	Kind        docflow.ErrorKind
	Remediation string
	Message     string
}

// Record convierte el resultado en el registro de historial.
func (r *WorkflowResult) Record(h entity.DocumentHeader) *entity.SubmissionRecord {
	rec := &entity.SubmissionRecord{
		ID:          r.RunID,
		Kind:        r.Kind,
		PartyName:   h.PartyName,
		CompanyName: h.CompanyName,
		DocumentID:  r.DocumentID,
		FinalState:  r.FinalState,
		Total:       r.Total,
		Currency:    r.Currency,
		Events:      r.Events,
	}
	if r.Failure != nil {
		rec.FailedStep = string(r.Failure.Step)
		rec.ErrorKind = string(r.Failure.Kind)
		rec.Remediation = r.Failure.Remediation
		rec.ErrorMessage = r.Failure.Message
	}
	return rec
}
