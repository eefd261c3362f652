package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/docflow-erp/internal/application/dto"
	"github.com/jhoicas/docflow-erp/internal/application/intake"
	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// DocumentHandler envía facturas de venta y órdenes de compra al ERP.
type DocumentHandler struct {
	uc  *submission.UseCase
	log zerolog.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *submission.UseCase, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

// SubmitSalesInvoice crea y envía una factura de venta.
// POST /api/documents/sales-invoices
func (h *DocumentHandler) SubmitSalesInvoice(c *fiber.Ctx) error {
	return h.submit(c, entity.KindSalesInvoice)
}

// SubmitPurchaseOrder crea y envía una orden de compra.
// POST /api/documents/purchase-orders
func (h *DocumentHandler) SubmitPurchaseOrder(c *fiber.Ctx) error {
	return h.submit(c, entity.KindPurchaseOrder)
}

func (h *DocumentHandler) submit(c *fiber.Ctx, kind entity.DocumentKind) error {
	header, err := parseHeader(c, kind)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.Submit(c.UserContext(), header, nil)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewWorkflowResultResponse(res))
}

// Stream igual que submit, pero emite cada evento de estado como Server-Sent Event
// ("status") a medida que ocurre y termina con un evento "result" o "error".
// POST /api/documents/:kind/stream
func (h *DocumentHandler) Stream(c *fiber.Ctx) error {
	kind, err := intake.ParseKind(c.Params("kind"))
	if err != nil {
		return writeError(c, err)
	}
	header, err := parseHeader(c, kind)
	if err != nil {
		return writeError(c, err)
	}

	// El contexto de fasthttp se recicla al volver del handler: el stream writer
	// solo usa valores copiados aquí.
	ctx := context.WithoutCancel(c.UserContext())
	uc, log := h.uc, h.log

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sink := submission.SinkFunc(func(ev entity.StatusEvent) {
			writeSSE(w, "status", ev)
		})
		res, err := uc.Submit(ctx, header, sink)
		if err != nil {
			_, body := errorResponse(err)
			writeSSE(w, "error", body)
			return
		}
		if !writeSSE(w, "result", dto.NewWorkflowResultResponse(res)) {
			log.Warn().Str("run_id", res.RunID).Msg("stream client disconnected before result")
		}
	}))
	return nil
}

// writeSSE escribe un evento y hace flush. Devuelve false si el cliente ya no lee;
// el envío sigue igualmente hasta el final.
func writeSSE(w *bufio.Writer, event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return false
	}
	return w.Flush() == nil
}

func parseHeader(c *fiber.Ctx, kind entity.DocumentKind) (entity.DocumentHeader, error) {
	if kind == entity.KindPurchaseOrder {
		var in dto.PurchaseOrderRequest
		if err := c.BodyParser(&in); err != nil {
			return entity.DocumentHeader{}, errInvalidBody
		}
		return in.ToHeader()
	}
	var in dto.SalesInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return entity.DocumentHeader{}, errInvalidBody
	}
	return in.ToHeader()
}
