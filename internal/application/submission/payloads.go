package submission

import (
	"strings"
	"unicode"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

const erpDateLayout = "2006-01-02"

// Payloads arma los cuerpos JSON que espera el ERP a partir de la cabecera y los Defaults.
type Payloads struct {
	defaults Defaults
}

// NewPayloads constructor.
func NewPayloads(defaults Defaults) *Payloads {
	return &Payloads{defaults: defaults}
}

// Company payload de creación de empresa.
func (p *Payloads) Company(name string) entity.Record {
	rec := entity.Record{
		"doctype":          string(entity.EntityCompany),
		"company_name":     name,
		"abbr":             companyAbbr(name),
		"default_currency": p.defaults.Currency,
	}
	if p.defaults.Country != "" {
		rec["country"] = p.defaults.Country
	}
	return rec
}

// Party payload de creación de cliente o proveedor.
func (p *Payloads) Party(kind entity.EntityKind, name string) entity.Record {
	if kind == entity.EntitySupplier {
		return entity.Record{
			"doctype":        string(entity.EntitySupplier),
			"supplier_name":  name,
			"supplier_group": p.defaults.SupplierGroup,
			"supplier_type":  "Company",
		}
	}
	return entity.Record{
		"doctype":        string(entity.EntityCustomer),
		"customer_name":  name,
		"customer_type":  "Company",
		"customer_group": p.defaults.CustomerGroup,
		"territory":      p.defaults.Territory,
	}
}

// Item payload de creación de ítem. Se crea como no inventariable para que
// la factura no exija almacén ni existencias.
func (p *Payloads) Item(line entity.LineItem) entity.Record {
	code := line.Identifier()
	name := strings.TrimSpace(line.Description)
	if name == "" {
		name = code
	}
	return entity.Record{
		"doctype":          string(entity.EntityItem),
		"item_code":        code,
		"item_name":        truncate(name, 140),
		"description":      line.Description,
		"item_group":       p.defaults.ItemGroup,
		"stock_uom":        p.defaults.StockUOM,
		"is_stock_item":    0,
		"is_sales_item":    1,
		"is_purchase_item": 1,
	}
}

// Document payload del borrador: Sales Invoice o Purchase Order.
// Las referencias a entidades usan el nombre canónico devuelto por el ERP.
func (p *Payloads) Document(h entity.DocumentHeader, r Resolved) entity.Record {
	if h.Kind == entity.KindPurchaseOrder {
		return p.purchaseOrder(h, r)
	}
	return p.salesInvoice(h, r)
}

func (p *Payloads) salesInvoice(h entity.DocumentHeader, r Resolved) entity.Record {
	items := make([]entity.Record, 0, len(h.Lines))
	for _, l := range h.Lines {
		items = append(items, entity.Record{
			"item_code":   r.ItemName(l.Identifier()),
			"description": l.Description,
			"qty":         l.Quantity.InexactFloat64(),
			"rate":        l.UnitRate.InexactFloat64(),
		})
	}

	rec := entity.Record{
		"doctype":          string(entity.KindSalesInvoice),
		"customer":         r.Party.Name,
		"company":          r.Company.Name,
		"posting_date":     h.PrimaryDate.Format(erpDateLayout),
		"set_posting_time": 1,
		"due_date":         h.SecondaryDate.Format(erpDateLayout),
		"currency":         h.Currency,
		"items":            items,
	}
	if ref := strings.TrimSpace(h.Reference); ref != "" {
		rec["remarks"] = "Source document: " + ref
	}

	var taxes []entity.Record
	if h.Charges.ShippingCost.IsPositive() {
		taxes = append(taxes, p.actualCharge("Shipping", p.defaults.ShippingAccount, h.Charges.ShippingCost.InexactFloat64()))
	}
	if h.Charges.Tax.IsPositive() {
		taxes = append(taxes, p.actualCharge("Tax", p.defaults.TaxAccount, h.Charges.Tax.InexactFloat64()))
	}
	if len(taxes) > 0 {
		rec["taxes"] = taxes
	}
	return rec
}

// actualCharge fila de impuestos con importe fijo. Sin cuenta configurada el ERP
// rechaza la fila como campo obligatorio y el error se clasifica como tal.
func (p *Payloads) actualCharge(description, account string, amount float64) entity.Record {
	row := entity.Record{
		"charge_type": "Actual",
		"description": description,
		"tax_amount":  amount,
	}
	if account != "" {
		row["account_head"] = account
	}
	return row
}

func (p *Payloads) purchaseOrder(h entity.DocumentHeader, r Resolved) entity.Record {
	schedule := h.SecondaryDate.Format(erpDateLayout)
	items := make([]entity.Record, 0, len(h.Lines))
	for _, l := range h.Lines {
		row := entity.Record{
			"item_code":     r.ItemName(l.Identifier()),
			"description":   l.Description,
			"qty":           l.Quantity.InexactFloat64(),
			"rate":          l.UnitRate.InexactFloat64(),
			"schedule_date": schedule,
		}
		if p.defaults.Warehouse != "" {
			row["warehouse"] = p.defaults.Warehouse
		}
		items = append(items, row)
	}
	return entity.Record{
		"doctype":          string(entity.KindPurchaseOrder),
		"supplier":         r.Party.Name,
		"company":          r.Company.Name,
		"transaction_date": h.PrimaryDate.Format(erpDateLayout),
		"schedule_date":    schedule,
		"currency":         h.Currency,
		"items":            items,
	}
}

// companyAbbr iniciales de la empresa en mayúsculas, máximo 5 letras.
func companyAbbr(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
		if b.Len() >= 5 {
			break
		}
	}
	if b.Len() == 0 {
		return "CO"
	}
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
