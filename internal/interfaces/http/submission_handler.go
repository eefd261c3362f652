package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/docflow-erp/internal/application/dto"
	"github.com/jhoicas/docflow-erp/internal/application/history"
)

// SubmissionHandler consulta el historial de envíos.
type SubmissionHandler struct {
	uc *history.UseCase
}

// NewSubmissionHandler construye el handler.
func NewSubmissionHandler(uc *history.UseCase) *SubmissionHandler {
	return &SubmissionHandler{uc: uc}
}

// GetByID detalle de una ejecución con sus eventos.
// GET /api/submissions/:id
func (h *SubmissionHandler) GetByID(c *fiber.Ctx) error {
	rec, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSubmissionRecordResponse(rec))
}

// ListStrayDrafts ejecuciones que dejaron un borrador sin enviar en el ERP.
// GET /api/submissions/stray-drafts?limit=&offset=
func (h *SubmissionHandler) ListStrayDrafts(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "limit y offset deben ser numéricos"})
	}
	page.DefaultPage()
	records, err := h.uc.ListStrayDrafts(c.UserContext(), page)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.SubmissionListResponse{
		Items: make([]dto.SubmissionRecordResponse, 0, len(records)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, r := range records {
		out.Items = append(out.Items, dto.NewSubmissionRecordResponse(r))
	}
	return c.JSON(out)
}

// Receipt comprobante PDF de la ejecución.
// GET /api/submissions/:id/receipt
func (h *SubmissionHandler) Receipt(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.uc.Receipt(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="submission-%s.pdf"`, id))
	return c.Send(pdf)
}
