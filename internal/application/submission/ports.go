// Package submission orquesta el envío de un documento al ERP:
// resolución idempotente de datos maestros, creación del borrador y envío.
package submission

import (
	"context"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// ERPGateway puerto de salida hacia la API REST del ERP (/api/resource/{DocType}).
// La implementación concreta es erpnext.Client; en tests se usa submissiontest.FakeERP.
type ERPGateway interface {
	// GetResource devuelve (nil, nil) cuando el ERP responde "no encontrado":
	// la ausencia no es un error.
	GetResource(ctx context.Context, doctype, name string) (entity.Record, error)
	// CreateResource crea una entidad o un documento en borrador.
	CreateResource(ctx context.Context, doctype string, payload entity.Record) (entity.Record, error)
	// UpdateResource actualiza un documento existente (se usa para docstatus = 1).
	UpdateResource(ctx context.Context, doctype, name string, payload entity.Record) (entity.Record, error)
}

// Defaults valores por defecto que el ERP exige al crear datos maestros y documentos.
// Tiene la misma forma que config.DefaultsConfig para convertirse directamente en main.
type Defaults struct {
	Currency        string
	Country         string
	CustomerGroup   string
	SupplierGroup   string
	Territory       string
	ItemGroup       string
	StockUOM        string
	Warehouse       string
	ShippingAccount string
	TaxAccount      string
}
