package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// EntityRefResponse entidad maestra resuelta durante el envío.
type EntityRefResponse struct {
	Kind       string `json:"kind"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Created    bool   `json:"created"`
}

// FailureResponse detalle del fallo clasificado.
type FailureResponse struct {
	Step        string `json:"step"`
	Kind        string `json:"kind"`
	Remediation string `json:"remediation,omitempty"`
	Message     string `json:"message"`
}

// WorkflowResultResponse resultado de una ejecución del orquestador.
type WorkflowResultResponse struct {
	RunID            string               `json:"run_id"`
	Kind             string               `json:"kind"`
	DocumentID       string               `json:"document_id,omitempty"`
	FinalState       string               `json:"final_state"`
	Currency         string               `json:"currency"`
	Total            decimal.Decimal      `json:"total"`
	ResolvedEntities []EntityRefResponse  `json:"resolved_entities"`
	Events           []entity.StatusEvent `json:"events"`
	Warnings         []string             `json:"warnings,omitempty"`
	Failure          *FailureResponse     `json:"failure,omitempty"`
}

// NewWorkflowResultResponse mapea el resultado de aplicación. nil → nil.
func NewWorkflowResultResponse(r *submission.WorkflowResult) *WorkflowResultResponse {
	if r == nil {
		return nil
	}
	out := &WorkflowResultResponse{
		RunID:            r.RunID,
		Kind:             string(r.Kind),
		DocumentID:       r.DocumentID,
		FinalState:       r.FinalState,
		Currency:         r.Currency,
		Total:            r.Total,
		ResolvedEntities: make([]EntityRefResponse, 0, len(r.ResolvedEntities)),
		Events:           r.Events,
		Warnings:         r.Warnings,
	}
	if out.Events == nil {
		out.Events = []entity.StatusEvent{}
	}
	for _, e := range r.ResolvedEntities {
		out.ResolvedEntities = append(out.ResolvedEntities, EntityRefResponse{
			Kind:       string(e.Kind),
			Identifier: e.Identifier,
			Name:       e.Name,
			Created:    e.Created,
		})
	}
	if r.Failure != nil {
		out.Failure = &FailureResponse{
			Step:        string(r.Failure.Step),
			Kind:        string(r.Failure.Kind),
			Remediation: r.Failure.Remediation,
			Message:     r.Failure.Message,
		}
	}
	return out
}

// SubmissionRecordResponse ejecución guardada en el historial.
type SubmissionRecordResponse struct {
	ID           string               `json:"id"`
	Kind         string               `json:"kind"`
	PartyName    string               `json:"party_name"`
	CompanyName  string               `json:"company_name"`
	DocumentID   string               `json:"document_id,omitempty"`
	FinalState   string               `json:"final_state"`
	Total        decimal.Decimal      `json:"total"`
	Currency     string               `json:"currency"`
	FailedStep   string               `json:"failed_step,omitempty"`
	ErrorKind    string               `json:"error_kind,omitempty"`
	Remediation  string               `json:"remediation,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Events       []entity.StatusEvent `json:"events,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewSubmissionRecordResponse mapea el registro de historial.
func NewSubmissionRecordResponse(r *entity.SubmissionRecord) SubmissionRecordResponse {
	return SubmissionRecordResponse{
		ID:           r.ID,
		Kind:         string(r.Kind),
		PartyName:    r.PartyName,
		CompanyName:  r.CompanyName,
		DocumentID:   r.DocumentID,
		FinalState:   r.FinalState,
		Total:        r.Total,
		Currency:     r.Currency,
		FailedStep:   r.FailedStep,
		ErrorKind:    r.ErrorKind,
		Remediation:  r.Remediation,
		ErrorMessage: r.ErrorMessage,
		Events:       r.Events,
		CreatedAt:    r.CreatedAt,
	}
}

// SubmissionListResponse página de ejecuciones.
type SubmissionListResponse struct {
	Items []SubmissionRecordResponse `json:"items"`
	Page  PageResponse               `json:"page"`
}

// UploadResponse propuesta de documento extraída del PDF, lista para editar y enviar.
type UploadResponse struct {
	Kind     string   `json:"kind"`
	Filename string   `json:"filename"`
	Pages    int      `json:"pages"`
	Document any      `json:"document"` // SalesInvoiceRequest o PurchaseOrderRequest
	Warnings []string `json:"warnings"`
}
