package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/docflow-erp/internal/domain"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// LineItemRequest línea de documento. El importe no se recibe: se calcula.
type LineItemRequest struct {
	ItemCode    string          `json:"item_code,omitempty"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// SalesInvoiceRequest cuerpo de POST /api/documents/sales-invoices.
type SalesInvoiceRequest struct {
	CustomerName string            `json:"customer_name"`
	CompanyName  string            `json:"company_name"`
	PostingDate  string            `json:"posting_date"` // YYYY-MM-DD
	DueDate      string            `json:"due_date"`
	Currency     string            `json:"currency,omitempty"`
	Reference    string            `json:"reference,omitempty"`
	ShippingCost decimal.Decimal   `json:"shipping_cost"`
	Tax          decimal.Decimal   `json:"tax"`
	Items        []LineItemRequest `json:"items"`
}

// PurchaseOrderRequest cuerpo de POST /api/documents/purchase-orders.
type PurchaseOrderRequest struct {
	SupplierName    string            `json:"supplier_name"`
	CompanyName     string            `json:"company_name"`
	TransactionDate string            `json:"transaction_date"`
	ScheduleDate    string            `json:"schedule_date"` // fecha de entrega
	Currency        string            `json:"currency,omitempty"`
	Reference       string            `json:"po_number,omitempty"`
	Items           []LineItemRequest `json:"items"`
}

// ToHeader convierte la petición en cabecera de dominio. Solo falla ante fechas mal formadas;
// los campos vacíos los reporta después la validación de dominio.
func (r SalesInvoiceRequest) ToHeader() (entity.DocumentHeader, error) {
	posting, err := parseDate("posting_date", r.PostingDate)
	if err != nil {
		return entity.DocumentHeader{}, err
	}
	due, err := parseDate("due_date", r.DueDate)
	if err != nil {
		return entity.DocumentHeader{}, err
	}
	return entity.DocumentHeader{
		Kind:          entity.KindSalesInvoice,
		PartyName:     r.CustomerName,
		CompanyName:   r.CompanyName,
		Currency:      strings.ToUpper(strings.TrimSpace(r.Currency)),
		PrimaryDate:   posting,
		SecondaryDate: due,
		Reference:     r.Reference,
		Charges:       entity.InvoiceCharges{ShippingCost: r.ShippingCost, Tax: r.Tax},
		Lines:         toLines(r.Items),
	}, nil
}

// ToHeader convierte la petición en cabecera de dominio.
func (r PurchaseOrderRequest) ToHeader() (entity.DocumentHeader, error) {
	txDate, err := parseDate("transaction_date", r.TransactionDate)
	if err != nil {
		return entity.DocumentHeader{}, err
	}
	schedule, err := parseDate("schedule_date", r.ScheduleDate)
	if err != nil {
		return entity.DocumentHeader{}, err
	}
	return entity.DocumentHeader{
		Kind:          entity.KindPurchaseOrder,
		PartyName:     r.SupplierName,
		CompanyName:   r.CompanyName,
		Currency:      strings.ToUpper(strings.TrimSpace(r.Currency)),
		PrimaryDate:   txDate,
		SecondaryDate: schedule,
		Reference:     r.Reference,
		Lines:         toLines(r.Items),
	}, nil
}

// NewSalesInvoiceRequest cabecera → petición editable (respuesta de la carga de PDF).
func NewSalesInvoiceRequest(h entity.DocumentHeader) SalesInvoiceRequest {
	return SalesInvoiceRequest{
		CustomerName: h.PartyName,
		CompanyName:  h.CompanyName,
		PostingDate:  formatDate(h.PrimaryDate),
		DueDate:      formatDate(h.SecondaryDate),
		Currency:     h.Currency,
		Reference:    h.Reference,
		ShippingCost: h.Charges.ShippingCost,
		Tax:          h.Charges.Tax,
		Items:        fromLines(h.Lines),
	}
}

// NewPurchaseOrderRequest cabecera → petición editable.
func NewPurchaseOrderRequest(h entity.DocumentHeader) PurchaseOrderRequest {
	return PurchaseOrderRequest{
		SupplierName:    h.PartyName,
		CompanyName:     h.CompanyName,
		TransactionDate: formatDate(h.PrimaryDate),
		ScheduleDate:    formatDate(h.SecondaryDate),
		Currency:        h.Currency,
		Reference:       h.Reference,
		Items:           fromLines(h.Lines),
	}
}

func toLines(items []LineItemRequest) []entity.LineItem {
	lines := make([]entity.LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, entity.LineItem{
			ItemCode:    it.ItemCode,
			Category:    it.Category,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitRate:    it.Rate,
		})
	}
	return lines
}

func fromLines(lines []entity.LineItem) []LineItemRequest {
	items := make([]LineItemRequest, 0, len(lines))
	for _, l := range lines {
		items = append(items, LineItemRequest{
			ItemCode:    l.ItemCode,
			Category:    l.Category,
			Description: l.Description,
			Quantity:    l.Quantity,
			Rate:        l.UnitRate,
		})
	}
	return items
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, field)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
