package intake

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// fields acceso tolerante a un objeto JSON decodificado.
type fields map[string]any

// str devuelve el primer campo no vacío de la lista de alias.
func (f fields) str(keys ...string) string {
	for _, k := range keys {
		switch v := f[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return decimal.NewFromFloat(v).String()
		}
	}
	return ""
}

// dec devuelve el primer campo numérico entre los alias; ok=false si ninguno está presente.
func (f fields) dec(keys ...string) (d decimal.Decimal, ok bool) {
	for _, k := range keys {
		switch v := f[k].(type) {
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return d, true
			}
		case float64:
			return decimal.NewFromFloat(v), true
		case int:
			return decimal.NewFromInt(int64(v)), true
		case string:
			if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

// date acepta YYYY-MM-DD y, por tolerancia, RFC 3339.
func (f fields) date(keys ...string) (time.Time, bool) {
	s := f.str(keys...)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func (f fields) list(keys ...string) []fields {
	for _, k := range keys {
		raw, ok := f[k].([]any)
		if !ok {
			continue
		}
		out := make([]fields, 0, len(raw))
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				out = append(out, fields(m))
			}
		}
		return out
	}
	return nil
}

// NormalizeInvoice reconcilia la respuesta de /upload/invoice. Acepta el objeto con o sin
// el envoltorio {"data": {...}}. Los valores ausentes quedan en cero para que el usuario los complete.
func NormalizeInvoice(raw map[string]any) (entity.DocumentHeader, []string) {
	f := fields(raw)
	if inner, ok := raw["data"].(map[string]any); ok {
		f = fields(inner)
	}

	var warnings []string
	h := entity.DocumentHeader{
		Kind:        entity.KindSalesInvoice,
		CompanyName: f.str("VendorName", "company_name"),
		PartyName:   f.str("CustomerName", "BillingAddressRecipient", "customer_name"),
		Currency:    strings.ToUpper(f.str("Currency", "currency")),
		Reference:   f.str("InvoiceId", "invoice_id"),
	}

	var ok bool
	if h.PrimaryDate, ok = f.date("InvoiceDate", "posting_date", "date"); !ok {
		warnings = append(warnings, "Invoice date not found in the document")
	}
	if h.SecondaryDate, ok = f.date("DueDate", "due_date"); !ok {
		warnings = append(warnings, "Due date not found in the document")
	}
	h.Charges.ShippingCost, _ = f.dec("ShippingCost", "shipping_cost")
	h.Charges.Tax, _ = f.dec("Tax", "TotalTax", "tax")

	h.Lines, warnings = normalizeLines(f.list("Items", "items"), warnings)

	if declared, ok := f.dec("InvoiceTotal", "total"); ok && !declared.Sub(h.Total()).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")) {
		warnings = append(warnings, fmt.Sprintf("Declared invoice total %s differs from computed total %s",
			declared.StringFixed(2), h.Total().StringFixed(2)))
	}
	return h, warnings
}

// NormalizePurchaseOrder reconcilia la respuesta de /upload/po.
func NormalizePurchaseOrder(raw map[string]any) (entity.DocumentHeader, []string) {
	f := fields(raw)
	if inner, ok := raw["data"].(map[string]any); ok {
		f = fields(inner)
	}

	var warnings []string
	h := entity.DocumentHeader{
		Kind:        entity.KindPurchaseOrder,
		PartyName:   f.str("supplier_name", "SupplierName", "VendorName"),
		CompanyName: f.str("company_name", "CompanyName"),
		Currency:    strings.ToUpper(f.str("currency", "Currency")),
		Reference:   f.str("po_number", "PurchaseOrder"),
	}

	var ok bool
	if h.PrimaryDate, ok = f.date("date", "transaction_date", "OrderDate"); !ok {
		warnings = append(warnings, "Order date not found in the document")
	}
	if h.SecondaryDate, ok = f.date("delivery_date", "schedule_date", "DeliveryDate"); !ok {
		warnings = append(warnings, "Delivery date not found in the document")
	}

	h.Lines, warnings = normalizeLines(f.list("items", "Items"), warnings)

	if declared, ok := f.dec("total_amount", "total"); ok && !declared.Sub(h.Total()).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")) {
		warnings = append(warnings, fmt.Sprintf("Declared order total %s differs from computed total %s",
			declared.StringFixed(2), h.Total().StringFixed(2)))
	}
	return h, warnings
}

// normalizeLines el importe de línea declarado nunca se usa; solo se compara con cantidad × tarifa.
func normalizeLines(items []fields, warnings []string) ([]entity.LineItem, []string) {
	lines := make([]entity.LineItem, 0, len(items))
	for i, it := range items {
		l := entity.LineItem{
			ItemCode:    it.str("item_code", "ProductCode", "item_name"),
			Category:    it.str("category", "Category"),
			Description: it.str("description", "Description"),
		}
		l.Quantity, _ = it.dec("quantity", "qty", "Quantity")
		l.UnitRate, _ = it.dec("rate", "unit_price", "UnitPrice", "price")

		if declared, ok := it.dec("amount", "total", "Amount"); ok && !declared.Equal(l.Amount()) {
			warnings = append(warnings, fmt.Sprintf("Line %d: declared amount %s differs from quantity × rate %s",
				i+1, declared.StringFixed(2), l.Amount().StringFixed(2)))
		}
		if l.Identifier() == "" {
			warnings = append(warnings, fmt.Sprintf("Line %d: no item code or category found", i+1))
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		warnings = append(warnings, "No line items found in the document")
	}
	return lines, warnings
}
