package entity

import (
	"fmt"
	"time"
)

// EntityKind DocType de datos maestros que un documento puede referenciar.
type EntityKind string

const (
	EntityCompany  EntityKind = "Company"
	EntityCustomer EntityKind = "Customer"
	EntitySupplier EntityKind = "Supplier"
	EntityItem     EntityKind = "Item"
)

// Record representación genérica de un documento del ERP (cuerpo JSON de /api/resource).
type Record map[string]any

// String devuelve el campo como texto ("" si no existe o es nulo).
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Name identificador canónico del registro en el ERP.
func (r Record) Name() string { return r.String("name") }

// EntityRef entidad maestra resuelta. No se modifica una vez resuelta.
type EntityRef struct {
	Kind       EntityKind
	Identifier string // identificador pedido por el documento
	Name       string // identificador canónico devuelto por el ERP
	Created    bool   // true si esta ejecución la creó
	Data       Record
}

// DocumentState estado del documento en el ERP.
type DocumentState string

const (
	StateAbsent    DocumentState = "Absent"
	StateDraft     DocumentState = "Draft"
	StateSubmitted DocumentState = "Submitted"
)

// DocumentRef referencia a un documento creado en el ERP.
type DocumentRef struct {
	Kind  DocumentKind
	ID    string
	State DocumentState
}

// StatusEvent mensaje de progreso de una ejecución. Solo se agregan, nunca se reordenan.
type StatusEvent struct {
	Sequence  int       `json:"sequence"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
