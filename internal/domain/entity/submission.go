package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados finales de una ejecución de envío.
const (
	FinalStateDraft     = "Draft"     // borrador creado pero no enviado (requiere limpieza manual)
	FinalStateSubmitted = "Submitted" // documento creado y enviado
	FinalStateFailed    = "Failed"    // sin documento en el ERP
)

// SubmissionRecord historial persistido de una ejecución del orquestador.
type SubmissionRecord struct {
	ID           string
	Kind         DocumentKind
	PartyName    string
	CompanyName  string
	DocumentID   string
	FinalState   string
	Total        decimal.Decimal
	Currency     string
	FailedStep   string
	ErrorKind    string
	Remediation  string
	ErrorMessage string
	Events       []StatusEvent
	CreatedAt    time.Time
}

// IsStrayDraft indica si la ejecución dejó un borrador sin enviar en el ERP.
func (r *SubmissionRecord) IsStrayDraft() bool {
	return r.FinalState == FinalStateDraft && r.DocumentID != ""
}
