package submission_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/application/submission/submissiontest"
	"github.com/jhoicas/docflow-erp/internal/domain/docflow"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

var today = time.Date(2026, 1, 29, 10, 0, 0, 0, time.UTC)

func testDefaults() submission.Defaults {
	return submission.Defaults{
		Currency:        "USD",
		Country:         "United States",
		CustomerGroup:   "All Customer Groups",
		SupplierGroup:   "All Supplier Groups",
		Territory:       "All Territories",
		ItemGroup:       "All Item Groups",
		StockUOM:        "Nos",
		Warehouse:       "Stores - AC",
		ShippingAccount: "Freight and Forwarding Charges - AC",
		TaxAccount:      "VAT - AC",
	}
}

func newOrchestrator(erp *submissiontest.FakeERP) *submission.Orchestrator {
	return submission.NewOrchestrator(erp, testDefaults()).WithClock(func() time.Time { return today })
}

func invoiceHeader() entity.DocumentHeader {
	return entity.DocumentHeader{
		Kind:          entity.KindSalesInvoice,
		PartyName:     "Jane Doe",
		CompanyName:   "Acme",
		Currency:      "USD",
		PrimaryDate:   time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC),
		SecondaryDate: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Reference:     "INV-2026-001",
		Charges: entity.InvoiceCharges{
			ShippingCost: decimal.NewFromInt(15),
			Tax:          decimal.NewFromInt(35),
		},
		Lines: []entity.LineItem{
			{ItemCode: "ITEM-001", Description: "Test Item 1", Quantity: decimal.NewFromInt(2), UnitRate: decimal.NewFromInt(100)},
			{ItemCode: "ITEM-002", Description: "Test Item 2", Quantity: decimal.NewFromInt(1), UnitRate: decimal.NewFromInt(50)},
		},
	}
}

func purchaseOrderHeader() entity.DocumentHeader {
	return entity.DocumentHeader{
		Kind:          entity.KindPurchaseOrder,
		PartyName:     "ABC Supplier",
		CompanyName:   "Acme",
		PrimaryDate:   time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC),
		SecondaryDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Lines: []entity.LineItem{
			{ItemCode: "ROD-10", Description: "Steel Rod", Quantity: decimal.NewFromInt(10), UnitRate: decimal.NewFromInt(25)},
		},
	}
}

func messages(events []entity.StatusEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Message
	}
	return out
}

func assertMonotonic(t *testing.T, events []entity.StatusEvent) {
	t.Helper()
	for i, e := range events {
		assert.Equal(t, i+1, e.Sequence, "secuencia del evento %d", i)
		if i > 0 {
			assert.False(t, e.Timestamp.Before(events[i-1].Timestamp), "timestamp del evento %d retrocede", i)
		}
	}
}

// Escenario A: ERP vacío, todo se crea y el documento termina enviado.
func TestSubmit_CaminoFeliz(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	var published []entity.StatusEvent
	sink := submission.SinkFunc(func(e entity.StatusEvent) { published = append(published, e) })

	res, err := newOrchestrator(erp).Submit(context.Background(), invoiceHeader(), sink)
	require.NoError(t, err)

	assert.Equal(t, entity.FinalStateSubmitted, res.FinalState)
	assert.Equal(t, "SINV-00001", res.DocumentID)
	assert.Nil(t, res.Failure)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, []string{
		`Checking Company "Acme"...`,
		`Creating Company "Acme"...`,
		`Created Company "Acme"`,
		`Checking Customer "Jane Doe"...`,
		`Creating Customer "Jane Doe"...`,
		`Created Customer "Jane Doe"`,
		`Checking Item "ITEM-001"...`,
		`Creating Item "ITEM-001"...`,
		`Created Item "ITEM-001"`,
		`Checking Item "ITEM-002"...`,
		`Creating Item "ITEM-002"...`,
		`Created Item "ITEM-002"`,
		`Creating Sales Invoice draft...`,
		`Created Sales Invoice draft SINV-00001`,
		`Submitting Sales Invoice SINV-00001...`,
		`Submitted Sales Invoice SINV-00001`,
	}, messages(res.Events))
	assertMonotonic(t, res.Events)
	assert.Equal(t, res.Events, published, "el sink recibe los mismos eventos en el mismo orden")

	require.Len(t, res.ResolvedEntities, 4)
	for _, ref := range res.ResolvedEntities {
		assert.True(t, ref.Created, "%s %s", ref.Kind, ref.Identifier)
	}

	doc := erp.Get("Sales Invoice", "SINV-00001")
	require.NotNil(t, doc)
	assert.Equal(t, 1, doc["docstatus"])
	assert.Equal(t, "Jane Doe", doc["customer"])
	assert.Equal(t, "Acme", doc["company"])
	assert.Equal(t, "2026-02-28", doc["due_date"])
}

func TestSubmit_TotalIncluyeCargos(t *testing.T) {
	res, err := newOrchestrator(submissiontest.NewFakeERP()).Submit(context.Background(), invoiceHeader(), nil)
	require.NoError(t, err)

	// 2*100 + 1*50 + 15 + 35
	want := decimal.NewFromInt(300)
	assert.True(t, res.Total.Sub(want).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")), "total %s", res.Total)
}

// Escenario B: el ERP no tiene tipo de cambio al crear el borrador.
func TestSubmit_FaltaTipoDeCambio(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	erp.FailOn("POST", "Sales Invoice",
		errors.New("Unable to find exchange rate for EUR to USD. Please create a Currency Exchange record manually"))

	res, err := newOrchestrator(erp).Submit(context.Background(), invoiceHeader(), nil)
	require.Error(t, err)

	var serr *submission.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, submission.StepCreateDraft, serr.Step)
	assert.Equal(t, docflow.KindExchangeRateMissing, serr.Classification.Kind)
	assert.Contains(t, serr.Classification.Remediation, "Currency Exchange")

	var cerr *submission.DocumentCreationError
	assert.ErrorAs(t, err, &cerr)

	assert.Equal(t, entity.FinalStateFailed, res.FinalState)
	assert.Empty(t, res.DocumentID)
	assert.Equal(t, 0, erp.Count("Sales Invoice"), "no debe quedar borrador")
	assert.Equal(t, `Creating Sales Invoice draft...`, res.Events[len(res.Events)-1].Message)
	assertMonotonic(t, res.Events)
}

// Escenario C: el borrador existe y el envío falla por red. No se borra ni cancela nada.
func TestSubmit_FalloDeRedAlEnviar(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	erp.FailOn("PUT", "Sales Invoice", &url.Error{
		Op:  "Put",
		URL: "http://erp.local/api/resource/Sales%20Invoice/SINV-00001",
		Err: errors.New("connect: connection refused"),
	})

	res, err := newOrchestrator(erp).Submit(context.Background(), invoiceHeader(), nil)
	require.Error(t, err)

	var serr *submission.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, submission.StepSubmit, serr.Step)
	assert.Equal(t, docflow.KindConnectivity, serr.Classification.Kind)
	assert.NotEmpty(t, serr.Classification.Remediation)
	assert.Same(t, res, serr.Result)

	assert.Equal(t, entity.FinalStateDraft, res.FinalState)
	assert.Equal(t, "SINV-00001", res.DocumentID)
	require.NotNil(t, res.Failure)
	assert.Equal(t, docflow.KindConnectivity, res.Failure.Kind)

	doc := erp.Get("Sales Invoice", "SINV-00001")
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc["docstatus"], "el borrador sigue en el ERP")
	assert.Equal(t, 1, erp.CountCalls("PUT"), "solo el intento de envío")
	assert.Equal(t, 0, erp.CountCalls("DELETE"))
	assert.Equal(t, `Submitting Sales Invoice SINV-00001...`, res.Events[len(res.Events)-1].Message)
}

// Escenario D: todo existe; solo se crea el documento.
func TestSubmit_TodoExiste(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	erp.Seed("Company", "Acme", entity.Record{"default_currency": "USD"})
	erp.Seed("Customer", "Jane Doe", nil)
	erp.Seed("Item", "ITEM-001", nil)
	erp.Seed("Item", "ITEM-002", nil)

	res, err := newOrchestrator(erp).Submit(context.Background(), invoiceHeader(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, erp.CountCalls("POST"), "solo se crea el documento")
	assert.Equal(t, []string{
		`Checking Company "Acme"...`,
		`Company "Acme" already exists`,
		`Checking Customer "Jane Doe"...`,
		`Customer "Jane Doe" already exists`,
		`Checking Item "ITEM-001"...`,
		`Item "ITEM-001" already exists`,
		`Checking Item "ITEM-002"...`,
		`Item "ITEM-002" already exists`,
		`Creating Sales Invoice draft...`,
		`Created Sales Invoice draft SINV-00001`,
		`Submitting Sales Invoice SINV-00001...`,
		`Submitted Sales Invoice SINV-00001`,
	}, messages(res.Events))
	for _, ref := range res.ResolvedEntities {
		assert.False(t, ref.Created)
	}
	assert.Equal(t, entity.FinalStateSubmitted, res.FinalState)
}

func TestSubmit_ValidacionSinLlamadasDeRed(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	h := invoiceHeader()
	h.Lines[1].Quantity = decimal.Zero

	res, err := newOrchestrator(erp).Submit(context.Background(), h, nil)
	require.Error(t, err)

	var serr *submission.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, submission.StepValidation, serr.Step)
	assert.Equal(t, docflow.KindValidation, serr.Classification.Kind)
	assert.Equal(t, "Line 2: quantity must be greater than 0", serr.Classification.Message)

	var verr *docflow.ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Equal(t, 0, erp.CountCalls(""))
	assert.Empty(t, res.Events)
	assert.Equal(t, entity.FinalStateFailed, res.FinalState)
}

// Un fallo al crear un ítem detiene el flujo: ni ítems siguientes ni documento.
func TestSubmit_FalloEnItemDetieneElFlujo(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	erp.FailOn("POST", "Item", errors.New("Error: Value missing for Item: Mandatory field item_group"))

	res, err := newOrchestrator(erp).Submit(context.Background(), invoiceHeader(), nil)
	require.Error(t, err)

	var serr *submission.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, submission.StepItems, serr.Step)
	assert.Equal(t, docflow.KindMandatoryFieldMissing, serr.Classification.Kind)

	var rerr *submission.EntityResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, entity.EntityItem, rerr.Kind)
	assert.Equal(t, "ITEM-001", rerr.Identifier)

	for _, c := range erp.Calls() {
		assert.NotEqual(t, "ITEM-002", c.Name)
		assert.NotEqual(t, "Sales Invoice", c.Doctype)
	}
	assert.Equal(t, `Creating Item "ITEM-001"...`, res.Events[len(res.Events)-1].Message)
	assert.Len(t, res.ResolvedEntities, 2)
}

// Un error al consultar no se toma como "no existe": no se intenta crear.
func TestSubmit_ErrorDeConsultaNoCrea(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	erp.FailOn("GET", "Customer", errors.New("Internal Server Error"))

	_, err := newOrchestrator(erp).Submit(context.Background(), invoiceHeader(), nil)
	require.Error(t, err)

	var serr *submission.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, submission.StepParty, serr.Step)
	assert.Equal(t, docflow.KindUnknown, serr.Classification.Kind)
	assert.Equal(t, "Internal Server Error", serr.Classification.Message)
	assert.Equal(t, 0, erp.Count("Customer"))
}

func TestSubmit_FacturaUsaMonedaDeLaEmpresa(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	erp.Seed("Company", "Acme", entity.Record{"default_currency": "USD"})
	h := invoiceHeader()
	h.Currency = "eur"

	res, err := newOrchestrator(erp).Submit(context.Background(), h, nil)
	require.NoError(t, err)

	assert.Equal(t, "USD", res.Currency)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "EUR")
	assert.Contains(t, messages(res.Events), res.Warnings[0])
	assert.Equal(t, "USD", erp.Get("Sales Invoice", res.DocumentID)["currency"])
}

func TestSubmit_OrdenDeCompra(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	erp.Seed("Company", "Acme", entity.Record{"default_currency": "EUR"})

	res, err := newOrchestrator(erp).Submit(context.Background(), purchaseOrderHeader(), nil)
	require.NoError(t, err)

	assert.Equal(t, "PO-00001", res.DocumentID)
	assert.Equal(t, "EUR", res.Currency, "sin moneda en la cabecera se usa la de la empresa")
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(250)))

	require.NotNil(t, erp.Get("Supplier", "ABC Supplier"))
	assert.Nil(t, erp.Get("Customer", "ABC Supplier"))

	doc := erp.Get("Purchase Order", "PO-00001")
	require.NotNil(t, doc)
	assert.Equal(t, "ABC Supplier", doc["supplier"])
	assert.Equal(t, "2026-02-15", doc["schedule_date"])
	items, ok := doc["items"].([]entity.Record)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Stores - AC", items[0]["warehouse"])
	assert.Equal(t, "2026-02-15", items[0]["schedule_date"])
}

func TestSubmit_ItemRepetidoSeResuelveUnaVez(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	h := invoiceHeader()
	h.Lines[1].ItemCode = "ITEM-001"

	res, err := newOrchestrator(erp).Submit(context.Background(), h, nil)
	require.NoError(t, err)

	gets := 0
	for _, c := range erp.Calls() {
		if c.Method == "GET" && c.Doctype == "Item" {
			gets++
		}
	}
	assert.Equal(t, 1, gets)
	items, _ := erp.Get("Sales Invoice", res.DocumentID)["items"].([]entity.Record)
	assert.Len(t, items, 2, "el documento conserva todas las líneas")
}

func TestSubmit_CargosComoFilasDeImpuesto(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	res, err := newOrchestrator(erp).Submit(context.Background(), invoiceHeader(), nil)
	require.NoError(t, err)

	doc := erp.Get("Sales Invoice", res.DocumentID)
	taxes, ok := doc["taxes"].([]entity.Record)
	require.True(t, ok)
	require.Len(t, taxes, 2)
	assert.Equal(t, "Actual", taxes[0]["charge_type"])
	assert.Equal(t, "Freight and Forwarding Charges - AC", taxes[0]["account_head"])
	assert.Equal(t, 15.0, taxes[0]["tax_amount"])
	assert.Equal(t, "VAT - AC", taxes[1]["account_head"])
	assert.True(t, strings.Contains(doc.String("remarks"), "INV-2026-001"))
}

// Cancelar el contexto del llamador no corta una ejecución ya iniciada.
func TestSubmit_IgnoraCancelacion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newOrchestrator(submissiontest.NewFakeERP()).Submit(ctx, invoiceHeader(), nil)
	require.NoError(t, err)
	assert.Equal(t, entity.FinalStateSubmitted, res.FinalState)
}
