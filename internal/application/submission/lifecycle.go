package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// ErrNotDraft se devuelve al intentar enviar un documento que no está en borrador.
var ErrNotDraft = errors.New("document is not a draft")

// LifecycleManager lleva el documento de Absent a Draft y de Draft a Submitted.
// Nunca borra ni cancela: si el envío falla, el borrador queda en el ERP.
type LifecycleManager struct {
	gateway  ERPGateway
	payloads *Payloads
}

// NewLifecycleManager constructor.
func NewLifecycleManager(gateway ERPGateway, payloads *Payloads) *LifecycleManager {
	return &LifecycleManager{gateway: gateway, payloads: payloads}
}

// CreateDraft crea el documento en estado borrador (docstatus 0).
func (m *LifecycleManager) CreateDraft(ctx context.Context, h entity.DocumentHeader, r Resolved, emit StatusEmitter) (entity.DocumentRef, error) {
	ref := entity.DocumentRef{Kind: h.Kind, State: entity.StateAbsent}

	emitf(emit, "Creating %s draft...", h.Kind)
	rec, err := m.gateway.CreateResource(ctx, string(h.Kind), m.payloads.Document(h, r))
	if err != nil {
		return ref, &DocumentCreationError{Kind: h.Kind, Err: err}
	}
	id := rec.Name()
	if id == "" {
		return ref, &DocumentCreationError{Kind: h.Kind, Err: errors.New("ERP response did not include the document name")}
	}

	ref.ID = id
	ref.State = entity.StateDraft
	emitf(emit, "Created %s draft %s", h.Kind, id)
	return ref, nil
}

// Submit confirma el borrador (docstatus 1). Ante error devuelve la referencia
// sin cambios: sigue en Draft.
func (m *LifecycleManager) Submit(ctx context.Context, ref entity.DocumentRef, emit StatusEmitter) (entity.DocumentRef, error) {
	if ref.State != entity.StateDraft || ref.ID == "" {
		return ref, &DocumentSubmissionError{Kind: ref.Kind, ID: ref.ID, Err: ErrNotDraft}
	}

	emitf(emit, "Submitting %s %s...", ref.Kind, ref.ID)
	rec, err := m.gateway.UpdateResource(ctx, string(ref.Kind), ref.ID, entity.Record{"docstatus": 1})
	if err != nil {
		return ref, &DocumentSubmissionError{Kind: ref.Kind, ID: ref.ID, Err: err}
	}
	if status := rec.String("docstatus"); status != "" && status != "1" {
		return ref, &DocumentSubmissionError{
			Kind: ref.Kind, ID: ref.ID,
			Err: fmt.Errorf("ERP kept docstatus %s after submit", status),
		}
	}

	ref.State = entity.StateSubmitted
	emitf(emit, "Submitted %s %s", ref.Kind, ref.ID)
	return ref, nil
}
