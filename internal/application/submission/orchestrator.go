package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/docflow-erp/internal/domain/docflow"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

const validationRemediation = "Correct the highlighted field and submit again."

// Orchestrator ejecuta el flujo completo de envío de un documento:
//
//	validar → empresa → cliente/proveedor → ítems → borrador → envío
//
// Los pasos son estrictamente secuenciales y el primer fallo detiene la ejecución.
// No hay reintentos ni compensación: un borrador creado antes de un fallo de envío
// queda en el ERP y el resultado lo informa con FinalState = Draft.
type Orchestrator struct {
	resolver  *EntityResolver
	lifecycle *LifecycleManager
	payloads  *Payloads
	defaults  Defaults
	now       func() time.Time
}

// NewOrchestrator arma el orquestador con sus componentes sobre un mismo gateway.
func NewOrchestrator(gateway ERPGateway, defaults Defaults) *Orchestrator {
	payloads := NewPayloads(defaults)
	return &Orchestrator{
		resolver:  NewEntityResolver(gateway),
		lifecycle: NewLifecycleManager(gateway, payloads),
		payloads:  payloads,
		defaults:  defaults,
		now:       time.Now,
	}
}

// WithClock fija el reloj (validación de fechas y sello de eventos). Para tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Submit valida y envía la cabecera. sink recibe cada evento en cuanto se emite; puede ser nil.
//
// Siempre devuelve un WorkflowResult (parcial si hubo fallo). El error, cuando existe,
// es *SubmissionError con el paso y la clasificación.
//
// La cancelación de ctx no interrumpe una ejecución ya iniciada: el flujo no se
// detiene a mitad de un paso para no dejar estados intermedios sin informar.
func (o *Orchestrator) Submit(ctx context.Context, h entity.DocumentHeader, sink StatusSink) (*WorkflowResult, error) {
	ctx = context.WithoutCancel(ctx)

	res := &WorkflowResult{
		RunID:      uuid.NewString(),
		Kind:       h.Kind,
		FinalState: entity.FinalStateFailed,
		Currency:   h.Currency,
		Total:      h.Total(),
	}

	// Validación local: ante el primer fallo no hay ninguna llamada al ERP.
	if verr := docflow.Validate(h, o.now()); verr != nil {
		cls := docflow.Classification{Kind: docflow.KindValidation, Remediation: validationRemediation, Message: verr.Message}
		return o.fail(res, nil, StepValidation, verr, cls)
	}

	log := NewEventLog(sink, o.now)
	resolved := Resolved{Items: make(map[string]entity.EntityRef)}

	company, err := o.resolver.EnsureExists(ctx, EntitySpec{
		Kind:       entity.EntityCompany,
		Identifier: h.CompanyName,
		Payload:    func() entity.Record { return o.payloads.Company(strings.TrimSpace(h.CompanyName)) },
	}, log)
	if err != nil {
		return o.failClassified(res, log, StepCompany, err)
	}
	resolved.Company = company
	res.ResolvedEntities = append(res.ResolvedEntities, company)

	h.Currency = o.documentCurrency(h, company, res, log)
	res.Currency = h.Currency

	partyKind := h.Kind.PartyKind()
	party, err := o.resolver.EnsureExists(ctx, EntitySpec{
		Kind:       partyKind,
		Identifier: h.PartyName,
		Payload:    func() entity.Record { return o.payloads.Party(partyKind, strings.TrimSpace(h.PartyName)) },
	}, log)
	if err != nil {
		return o.failClassified(res, log, StepParty, err)
	}
	resolved.Party = party
	res.ResolvedEntities = append(res.ResolvedEntities, party)

	// Un ítem repetido en varias líneas se resuelve una sola vez.
	for _, line := range h.DistinctItems() {
		item, err := o.resolver.EnsureExists(ctx, EntitySpec{
			Kind:       entity.EntityItem,
			Identifier: line.Identifier(),
			Payload:    func() entity.Record { return o.payloads.Item(line) },
		}, log)
		if err != nil {
			return o.failClassified(res, log, StepItems, err)
		}
		resolved.Items[line.Identifier()] = item
		res.ResolvedEntities = append(res.ResolvedEntities, item)
	}

	draft, err := o.lifecycle.CreateDraft(ctx, h, resolved, log)
	if err != nil {
		return o.failClassified(res, log, StepCreateDraft, err)
	}
	res.DocumentID = draft.ID
	res.FinalState = entity.FinalStateDraft

	if _, err := o.lifecycle.Submit(ctx, draft, log); err != nil {
		// El borrador queda en el ERP; FinalState sigue en Draft.
		return o.failClassified(res, log, StepSubmit, err)
	}
	res.FinalState = entity.FinalStateSubmitted
	res.Events = log.Events()
	return res, nil
}

// documentCurrency decide la moneda del documento.
// Factura: siempre la moneda por defecto de la empresa (evita pedir tipo de cambio);
// si la cabecera traía otra, se deja un aviso.
// Orden de compra: la de la cabecera y, si falta, la de la empresa.
func (o *Orchestrator) documentCurrency(h entity.DocumentHeader, company entity.EntityRef, res *WorkflowResult, emit StatusEmitter) string {
	companyCurrency := strings.TrimSpace(company.Data.String("default_currency"))
	if companyCurrency == "" {
		companyCurrency = o.defaults.Currency
	}
	requested := strings.ToUpper(strings.TrimSpace(h.Currency))

	if h.Kind == entity.KindPurchaseOrder {
		if requested == "" {
			return companyCurrency
		}
		return requested
	}

	if requested != "" && !strings.EqualFold(requested, companyCurrency) {
		msg := fmt.Sprintf("Document currency %s differs from company currency %s; the invoice will be created in %s",
			requested, companyCurrency, companyCurrency)
		res.Warnings = append(res.Warnings, msg)
		emit.Emit(msg)
	}
	return companyCurrency
}

// failClassified clasifica la causa original (sin el envoltorio del paso) y cierra el resultado.
func (o *Orchestrator) failClassified(res *WorkflowResult, log *EventLog, step Step, err error) (*WorkflowResult, error) {
	cause := err
	if inner := errors.Unwrap(err); inner != nil {
		cause = inner
	}
	return o.fail(res, log, step, err, docflow.ClassifyError(cause))
}

func (o *Orchestrator) fail(res *WorkflowResult, log *EventLog, step Step, err error, cls docflow.Classification) (*WorkflowResult, error) {
	res.Failure = &Failure{
		Step:        step,
		Kind:        cls.Kind,
		Remediation: cls.Remediation,
		Message:     cls.Message,
	}
	if log != nil {
		res.Events = log.Events()
	}
	return res, &SubmissionError{Step: step, Classification: cls, Result: res, Err: err}
}
