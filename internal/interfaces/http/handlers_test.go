package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/docflow-erp/internal/application/dto"
	"github.com/jhoicas/docflow-erp/internal/application/history"
	"github.com/jhoicas/docflow-erp/internal/application/intake"
	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/application/submission/submissiontest"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
	apphttp "github.com/jhoicas/docflow-erp/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/docflow-erp/pkg/jwt"
)

const invoiceBody = `{
  "customer_name": "Jane Doe",
  "company_name": "Acme",
  "posting_date": "2026-01-29",
  "due_date": "2026-02-28",
  "currency": "USD",
  "reference": "INV-2026-001",
  "shipping_cost": 15,
  "tax": 35,
  "items": [
    {"item_code": "ITEM-001", "description": "Test Item 1", "quantity": 2, "rate": 100},
    {"item_code": "ITEM-002", "description": "Test Item 2", "quantity": 1, "rate": "50.00"}
  ]
}`

const purchaseOrderBody = `{
  "supplier_name": "ABC Supplier",
  "company_name": "My Company",
  "transaction_date": "2026-01-29",
  "schedule_date": "2099-12-31",
  "currency": "eur",
  "po_number": "PO-2026-001",
  "items": [{"item_code": "CHAIR-01", "description": "Office Chair", "quantity": 5, "rate": 150}]
}`

// memoryHistory repositorio de historial en memoria.
type memoryHistory struct {
	mu      sync.Mutex
	records []*entity.SubmissionRecord
}

func (m *memoryHistory) Save(_ context.Context, rec *entity.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryHistory) GetByID(_ context.Context, id string) (*entity.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memoryHistory) ListStrayDrafts(_ context.Context, limit, offset int) ([]*entity.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.SubmissionRecord
	for _, r := range m.records {
		if r.IsStrayDraft() {
			out = append(out, r)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubReceipts struct{}

func (stubReceipts) GenerateReceipt(_ context.Context, rec *entity.SubmissionRecord) ([]byte, error) {
	return []byte("%PDF-1.4 " + rec.ID), nil
}

type stubExtractor struct {
	out map[string]any
	err error
}

func (s stubExtractor) Extract(context.Context, entity.DocumentKind, string, []byte) (map[string]any, error) {
	return s.out, s.err
}

type stubInspector struct{}

func (stubInspector) CountPages([]byte) (int, error) { return 1, nil }

type testEnv struct {
	app     *fiber.App
	erp     *submissiontest.FakeERP
	history *memoryHistory
}

func newTestEnv(t *testing.T, jwtSecret string) *testEnv {
	t.Helper()
	erp := submissiontest.NewFakeERP()
	hist := &memoryHistory{}
	orch := submission.NewOrchestrator(erp, submission.Defaults{Currency: "USD", Warehouse: "Stores - AC"})

	extractor := stubExtractor{out: map[string]any{
		"InvoiceId":    "INV-9",
		"VendorName":   "Acme",
		"CustomerName": "Jane Doe",
		"InvoiceDate":  "2026-01-29",
		"DueDate":      "2026-02-28",
		"Items": []any{
			map[string]any{"description": "Widget", "item_code": "W-1", "quantity": json.Number("2"), "rate": json.Number("10")},
		},
	}}

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		SubmitUC:  submission.NewUseCase(orch, hist, zerolog.Nop()),
		IntakeUC:  intake.NewUseCase(extractor, stubInspector{}, 1024, zerolog.Nop()),
		HistoryUC: history.NewUseCase(hist, stubReceipts{}),
		JWTSecret: jwtSecret,
		Log:       zerolog.Nop(),
	})
	return &testEnv{app: app, erp: erp, history: hist}
}

func (e *testEnv) postJSON(t *testing.T, path, body, auth string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSubmitSalesInvoice_Creado(t *testing.T) {
	env := newTestEnv(t, "")
	resp := env.postJSON(t, "/api/documents/sales-invoices", invoiceBody, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	res := decodeBody[dto.WorkflowResultResponse](t, resp)
	assert.Equal(t, "Submitted", res.FinalState)
	assert.Equal(t, "SINV-00001", res.DocumentID)
	assert.Equal(t, "300", res.Total.String())
	assert.Len(t, res.ResolvedEntities, 4)
	assert.Equal(t, "Submitted Sales Invoice SINV-00001", res.Events[len(res.Events)-1].Message)
	assert.Nil(t, res.Failure)

	require.Len(t, env.history.records, 1)
	assert.Equal(t, res.RunID, env.history.records[0].ID)
}

func TestSubmitPurchaseOrder_Creado(t *testing.T) {
	env := newTestEnv(t, "")
	resp := env.postJSON(t, "/api/documents/purchase-orders", purchaseOrderBody, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	res := decodeBody[dto.WorkflowResultResponse](t, resp)
	assert.Equal(t, "Purchase Order", res.Kind)
	assert.Equal(t, "PO-00001", res.DocumentID)
	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, 1, env.erp.Count("Supplier"))
}

func TestSubmit_ValidacionResponde422SinTocarERP(t *testing.T) {
	env := newTestEnv(t, "")
	body := strings.Replace(invoiceBody, `"Jane Doe"`, `""`, 1)
	resp := env.postJSON(t, "/api/documents/sales-invoices", body, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	out := decodeBody[dto.ErrorResponse](t, resp)
	assert.Equal(t, "Validation", out.Code)
	assert.Equal(t, "party_name", out.Field)
	assert.Equal(t, "validation", out.Step)
	assert.Equal(t, "Customer name is required", out.Message)
	require.NotNil(t, out.Result)
	assert.Equal(t, "Failed", out.Result.FinalState)
	assert.Zero(t, env.erp.CountCalls(""))
	assert.Empty(t, env.history.records, "la validación no se guarda")
}

func TestSubmit_FechaMalFormada400(t *testing.T) {
	env := newTestEnv(t, "")
	body := strings.Replace(invoiceBody, `"2026-02-28"`, `"28/02/2026"`, 1)
	resp := env.postJSON(t, "/api/documents/sales-invoices", body, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := decodeBody[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Contains(t, out.Message, "due_date")
}

func TestSubmit_CuerpoInvalido400(t *testing.T) {
	env := newTestEnv(t, "")
	resp := env.postJSON(t, "/api/documents/sales-invoices", `{"items": "no"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmit_FaltaTipoDeCambio422ConRemediacion(t *testing.T) {
	env := newTestEnv(t, "")
	env.erp.FailOn("POST", "Sales Invoice", errors.New("Unable to find exchange rate for EUR to USD"))
	resp := env.postJSON(t, "/api/documents/sales-invoices", invoiceBody, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	out := decodeBody[dto.ErrorResponse](t, resp)
	assert.Equal(t, "ExchangeRateMissing", out.Code)
	assert.Equal(t, "create-draft", out.Step)
	assert.Contains(t, out.Remediation, "Currency Exchange")
	require.NotNil(t, out.Result)
	assert.Equal(t, "Failed", out.Result.FinalState)
	assert.Empty(t, out.Result.DocumentID)
}

func TestSubmit_ERPCaidoAlEnviar503DejaBorrador(t *testing.T) {
	env := newTestEnv(t, "")
	env.erp.FailOn("PUT", "Sales Invoice", &url.Error{Op: "Put", URL: "http://erp.local", Err: errors.New("connection refused")})
	resp := env.postJSON(t, "/api/documents/sales-invoices", invoiceBody, "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	out := decodeBody[dto.ErrorResponse](t, resp)
	assert.Equal(t, "Connectivity", out.Code)
	require.NotNil(t, out.Result)
	assert.Equal(t, "Draft", out.Result.FinalState)
	assert.Equal(t, "SINV-00001", out.Result.DocumentID)

	// El borrador abandonado aparece en el listado para limpieza manual.
	list := decodeBody[dto.SubmissionListResponse](t, env.get(t, "/api/submissions/stray-drafts"))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "SINV-00001", list.Items[0].DocumentID)
	assert.Equal(t, "submit", list.Items[0].FailedStep)
	assert.Equal(t, 20, list.Page.Limit)
}

func TestStream_EventosYResultado(t *testing.T) {
	env := newTestEnv(t, "")
	resp := env.postJSON(t, "/api/documents/invoice/stream", invoiceBody, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, "event: status\ndata: ")
	assert.Contains(t, body, `"message":"Checking Company \"Acme\"..."`)
	assert.Contains(t, body, "event: result\ndata: ")
	assert.Less(t, strings.Index(body, "Checking Company"), strings.Index(body, "event: result"),
		"los eventos llegan antes del resultado")
	assert.NotContains(t, body, "event: error")
}

func TestStream_FalloTerminaConEventoError(t *testing.T) {
	env := newTestEnv(t, "")
	env.erp.FailOn("GET", "Company", errors.New("Something odd happened"))
	resp := env.postJSON(t, "/api/documents/sales-invoices/stream", invoiceBody, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "event: error\ndata: ")
	assert.Contains(t, body, `"code":"Unknown"`)
	assert.NotContains(t, body, "event: result")
}

func TestStream_TipoDesconocido400(t *testing.T) {
	env := newTestEnv(t, "")
	resp := env.postJSON(t, "/api/documents/receipt/stream", invoiceBody, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func uploadRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// invoiceUpload UploadResponse con el documento ya tipado.
type invoiceUpload struct {
	Kind     string                  `json:"kind"`
	Pages    int                     `json:"pages"`
	Document dto.SalesInvoiceRequest `json:"document"`
	Warnings []string                `json:"warnings"`
}

func TestUpload_DevuelvePropuestaEditable(t *testing.T) {
	env := newTestEnv(t, "")
	resp, err := env.app.Test(uploadRequest(t, "/api/uploads/invoice", "invoice.pdf", []byte("%PDF-1.4 test")), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody[invoiceUpload](t, resp)

	assert.Equal(t, "Sales Invoice", out.Kind)
	assert.Equal(t, 1, out.Pages)
	assert.Equal(t, "Jane Doe", out.Document.CustomerName)
	assert.Equal(t, "2026-02-28", out.Document.DueDate)
	require.Len(t, out.Document.Items, 1)
	assert.Equal(t, "W-1", out.Document.Items[0].ItemCode)
	assert.Zero(t, env.erp.CountCalls(""), "la carga nunca toca el ERP")
}

func TestUpload_SoloPDF(t *testing.T) {
	env := newTestEnv(t, "")
	resp, err := env.app.Test(uploadRequest(t, "/api/uploads/po", "order.docx", []byte("x")), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_ArchivoDemasiadoGrande413(t *testing.T) {
	env := newTestEnv(t, "")
	big := append([]byte("%PDF-1.4 "), bytes.Repeat([]byte("a"), 2048)...)
	resp, err := env.app.Test(uploadRequest(t, "/api/uploads/invoice", "big.pdf", big), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestUpload_SinArchivo400(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/invoice", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmissions_DetalleYComprobante(t *testing.T) {
	env := newTestEnv(t, "")
	res := decodeBody[dto.WorkflowResultResponse](t, env.postJSON(t, "/api/documents/sales-invoices", invoiceBody, ""))

	rec := decodeBody[dto.SubmissionRecordResponse](t, env.get(t, "/api/submissions/"+res.RunID))
	assert.Equal(t, "Submitted", rec.FinalState)
	assert.Equal(t, "Jane Doe", rec.PartyName)
	assert.Len(t, rec.Events, len(res.Events))

	resp := env.get(t, "/api/submissions/"+res.RunID+"/receipt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdf, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestSubmissions_NoExiste404(t *testing.T) {
	env := newTestEnv(t, "")
	resp := env.get(t, "/api/submissions/00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.get(t, "/api/submissions/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_ConJWT_ProtegeRutas(t *testing.T) {
	env := newTestEnv(t, testJWTSecret)

	resp := env.postJSON(t, "/api/documents/sales-invoices", invoiceBody, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.postJSON(t, "/api/documents/sales-invoices", invoiceBody, tokenForRole(t, pkgjwt.RoleViewer))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, env.erp.CountCalls(""))

	resp = env.postJSON(t, "/api/documents/sales-invoices", invoiceBody, tokenForRole(t, pkgjwt.RoleOperator))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/submissions/stray-drafts", nil)
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleViewer))
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSinHistorial_503(t *testing.T) {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		SubmitUC:  submission.NewUseCase(submission.NewOrchestrator(submissiontest.NewFakeERP(), submission.Defaults{}), nil, zerolog.Nop()),
		IntakeUC:  intake.NewUseCase(nil, nil, 0, zerolog.Nop()),
		HistoryUC: history.NewUseCase(nil, nil),
		Log:       zerolog.Nop(),
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/submissions/stray-drafts", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
