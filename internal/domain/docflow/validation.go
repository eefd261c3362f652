// Package docflow contiene las reglas de dominio previas al envío al ERP:
// validación local de la cabecera y clasificación de errores devueltos por el ERP.
// Nada en este paquete hace llamadas de red.
package docflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// ValidationError primera regla incumplida por la cabecera.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate evalúa las reglas en orden fijo y devuelve la primera que falla (nil si todas pasan).
// today se recibe explícito para que la regla de fecha de entrega sea determinista.
//
// Orden:
//  1. partyName y companyName no vacíos
//  2. fechas presentes, secundaria >= primaria, y en órdenes de compra secundaria >= hoy
//  3. al menos una línea
//  4. por línea: identificador o categoría, descripción, cantidad > 0, tarifa >= 0
//  5. envío >= 0 e impuesto >= 0 (facturas)
func Validate(h entity.DocumentHeader, today time.Time) *ValidationError {
	if !h.Kind.Valid() {
		return invalid("kind", "unsupported document kind %q", h.Kind)
	}

	partyLabel := "Customer"
	if h.Kind == entity.KindPurchaseOrder {
		partyLabel = "Supplier"
	}
	if strings.TrimSpace(h.PartyName) == "" {
		return invalid("party_name", "%s name is required", partyLabel)
	}
	if strings.TrimSpace(h.CompanyName) == "" {
		return invalid("company_name", "Company name is required")
	}

	primaryLabel, secondaryLabel := "Posting date", "Due date"
	if h.Kind == entity.KindPurchaseOrder {
		primaryLabel, secondaryLabel = "Order date", "Delivery date"
	}
	if h.PrimaryDate.IsZero() {
		return invalid("primary_date", "%s is required", primaryLabel)
	}
	if h.SecondaryDate.IsZero() {
		return invalid("secondary_date", "%s is required", secondaryLabel)
	}
	primary, secondary := dateOnly(h.PrimaryDate), dateOnly(h.SecondaryDate)
	if secondary.Before(primary) {
		return invalid("secondary_date", "%s cannot be before %s", secondaryLabel, strings.ToLower(primaryLabel))
	}
	if h.Kind == entity.KindPurchaseOrder && secondary.Before(dateOnly(today)) {
		return invalid("secondary_date", "%s cannot be in the past", secondaryLabel)
	}

	if len(h.Lines) == 0 {
		return invalid("lines", "At least one line item is required")
	}
	for i, l := range h.Lines {
		n := i + 1
		if l.Identifier() == "" {
			return invalid(fmt.Sprintf("lines[%d].item_code", i), "Line %d: item code or category is required", n)
		}
		if strings.TrimSpace(l.Description) == "" {
			return invalid(fmt.Sprintf("lines[%d].description", i), "Line %d: description is required", n)
		}
		if !l.Quantity.GreaterThan(decimal.Zero) {
			return invalid(fmt.Sprintf("lines[%d].quantity", i), "Line %d: quantity must be greater than 0", n)
		}
		if l.UnitRate.IsNegative() {
			return invalid(fmt.Sprintf("lines[%d].rate", i), "Line %d: rate cannot be negative", n)
		}
	}

	if h.IsInvoice() {
		if h.Charges.ShippingCost.IsNegative() {
			return invalid("shipping_cost", "Shipping cost cannot be negative")
		}
		if h.Charges.Tax.IsNegative() {
			return invalid("tax", "Tax cannot be negative")
		}
	}
	return nil
}

// dateOnly descarta la hora para comparar solo el día calendario.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
