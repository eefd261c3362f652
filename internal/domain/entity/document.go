package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind tipo de documento de negocio en el ERP (coincide con el nombre del DocType).
type DocumentKind string

const (
	KindSalesInvoice  DocumentKind = "Sales Invoice"
	KindPurchaseOrder DocumentKind = "Purchase Order"
)

// Valid indica si el tipo de documento es soportado.
func (k DocumentKind) Valid() bool {
	return k == KindSalesInvoice || k == KindPurchaseOrder
}

// PartyKind devuelve el tipo de tercero que referencia el documento:
// Customer para facturas de venta, Supplier para órdenes de compra.
func (k DocumentKind) PartyKind() EntityKind {
	if k == KindPurchaseOrder {
		return EntitySupplier
	}
	return EntityCustomer
}

// LineItem línea del documento. El importe nunca se guarda: siempre se recalcula.
type LineItem struct {
	ItemCode    string
	Category    string // usado como identificador si no hay ItemCode
	Description string
	Quantity    decimal.Decimal
	UnitRate    decimal.Decimal
}

// Identifier devuelve el código de ítem o, en su defecto, la categoría.
func (l LineItem) Identifier() string {
	if code := strings.TrimSpace(l.ItemCode); code != "" {
		return code
	}
	return strings.TrimSpace(l.Category)
}

// Amount = Quantity × UnitRate.
func (l LineItem) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitRate)
}

// InvoiceCharges cargos que solo existen en facturas de venta.
type InvoiceCharges struct {
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
}

// DocumentHeader cabecera editada por el usuario, lista para validar y enviar.
// Charges solo aplica cuando Kind == KindSalesInvoice; en órdenes de compra se ignora.
type DocumentHeader struct {
	Kind          DocumentKind
	PartyName     string // Customer o Supplier según Kind
	CompanyName   string
	Currency      string // orientativo en facturas: se sustituye por la moneda de la empresa
	PrimaryDate   time.Time // posting_date / transaction_date
	SecondaryDate time.Time // due_date / schedule_date
	Reference     string    // número del documento de origen (InvoiceId, po_number)
	Charges       InvoiceCharges
	Lines         []LineItem
}

// IsInvoice indica si la cabecera es una factura de venta.
func (h DocumentHeader) IsInvoice() bool { return h.Kind == KindSalesInvoice }

// Subtotal suma de importes de línea.
func (h DocumentHeader) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range h.Lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

// Total = Σ importes + envío + impuesto (estos dos solo en facturas).
func (h DocumentHeader) Total() decimal.Decimal {
	total := h.Subtotal()
	if h.IsInvoice() {
		total = total.Add(h.Charges.ShippingCost).Add(h.Charges.Tax)
	}
	return total
}

// DistinctItems devuelve las líneas con identificador único, en orden de primera aparición.
func (h DocumentHeader) DistinctItems() []LineItem {
	seen := make(map[string]struct{}, len(h.Lines))
	out := make([]LineItem, 0, len(h.Lines))
	for _, l := range h.Lines {
		id := l.Identifier()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, l)
	}
	return out
}
