package http

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/docflow-erp/internal/application/dto"
	"github.com/jhoicas/docflow-erp/internal/application/intake"
	"github.com/jhoicas/docflow-erp/internal/domain"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// UploadHandler recibe PDFs y devuelve la propuesta de documento extraída.
type UploadHandler struct {
	uc *intake.UseCase
}

// NewUploadHandler construye el handler.
func NewUploadHandler(uc *intake.UseCase) *UploadHandler {
	return &UploadHandler{uc: uc}
}

// Upload procesa el campo multipart "file".
// POST /api/uploads/:kind   (kind = invoice | po)
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	kind, err := intake.ParseKind(c.Params("kind"))
	if err != nil {
		return writeError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fmt.Errorf("%w: No file part", domain.ErrInvalidInput))
	}
	limit := h.uc.MaxBytes()
	if fh.Size > int64(limit) {
		return writeError(c, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, limit))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if err != nil {
		return writeError(c, err)
	}

	draft, err := h.uc.Process(c.UserContext(), kind, fh.Filename, content)
	if err != nil {
		return writeError(c, err)
	}

	resp := dto.UploadResponse{
		Kind:     string(kind),
		Filename: draft.Filename,
		Pages:    draft.Pages,
		Warnings: draft.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if kind == entity.KindPurchaseOrder {
		resp.Document = dto.NewPurchaseOrderRequest(draft.Header)
	} else {
		resp.Document = dto.NewSalesInvoiceRequest(draft.Header)
	}
	return c.JSON(resp)
}
