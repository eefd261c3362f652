package submission

import (
	"context"
	"strings"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// EntitySpec describe una entidad maestra a garantizar. Payload solo se evalúa si hay que crearla.
type EntitySpec struct {
	Kind       entity.EntityKind
	Identifier string
	Payload    func() entity.Record
}

// EntityResolver garantiza que una entidad exista en el ERP (consultar y, si falta, crear).
// Es la única lógica de "ensure-exists"; empresa, tercero e ítems pasan por aquí.
type EntityResolver struct {
	gateway ERPGateway
}

// NewEntityResolver constructor.
func NewEntityResolver(gateway ERPGateway) *EntityResolver {
	return &EntityResolver{gateway: gateway}
}

// EnsureExists consulta la entidad y la crea solo si el ERP responde que no existe.
// Un error en la consulta no se interpreta como ausencia: se propaga sin intentar crear.
func (r *EntityResolver) EnsureExists(ctx context.Context, spec EntitySpec, emit StatusEmitter) (entity.EntityRef, error) {
	id := strings.TrimSpace(spec.Identifier)
	ref := entity.EntityRef{Kind: spec.Kind, Identifier: id}

	emitf(emit, "Checking %s %q...", spec.Kind, id)
	existing, err := r.gateway.GetResource(ctx, string(spec.Kind), id)
	if err != nil {
		return ref, &EntityResolutionError{Kind: spec.Kind, Identifier: id, Err: err}
	}
	if existing != nil {
		ref.Name = canonicalName(existing, id)
		ref.Data = existing
		emitf(emit, "%s %q already exists", spec.Kind, id)
		return ref, nil
	}

	emitf(emit, "Creating %s %q...", spec.Kind, id)
	var payload entity.Record
	if spec.Payload != nil {
		payload = spec.Payload()
	}
	created, err := r.gateway.CreateResource(ctx, string(spec.Kind), payload)
	if err != nil {
		return ref, &EntityResolutionError{Kind: spec.Kind, Identifier: id, Err: err}
	}
	ref.Name = canonicalName(created, id)
	ref.Data = created
	ref.Created = true
	emitf(emit, "Created %s %q", spec.Kind, ref.Name)
	return ref, nil
}

func canonicalName(rec entity.Record, fallback string) string {
	if n := rec.Name(); n != "" {
		return n
	}
	return fallback
}

// Resolved entidades que referencia el documento, ya garantizadas en el ERP.
type Resolved struct {
	Company entity.EntityRef
	Party   entity.EntityRef
	Items   map[string]entity.EntityRef // por identificador de línea
}

// ItemName nombre canónico del ítem; si no se resolvió, el propio identificador.
func (r Resolved) ItemName(identifier string) string {
	if ref, ok := r.Items[identifier]; ok && ref.Name != "" {
		return ref.Name
	}
	return identifier
}
