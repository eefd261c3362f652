package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/docflow-erp/internal/application/history"
	"github.com/jhoicas/docflow-erp/internal/application/intake"
	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SubmitUC  *submission.UseCase
	IntakeUC  *intake.UseCase
	HistoryUC *history.UseCase
	JWTSecret string // vacío = API sin autenticación (modo local)
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	writers := deps.guard(jwt.RoleAdmin, jwt.RoleOperator)
	readers := deps.guard(jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleViewer)

	// Envío de documentos al ERP
	documents := api.Group("/documents", writers...)
	documentHandler := NewDocumentHandler(deps.SubmitUC, deps.Log)
	documents.Post("/sales-invoices", documentHandler.SubmitSalesInvoice)
	documents.Post("/purchase-orders", documentHandler.SubmitPurchaseOrder)
	documents.Post("/:kind/stream", documentHandler.Stream)

	// Carga de PDFs
	uploads := api.Group("/uploads", writers...)
	uploadHandler := NewUploadHandler(deps.IntakeUC)
	uploads.Post("/:kind", uploadHandler.Upload)

	// Historial (stray-drafts antes de :id)
	submissions := api.Group("/submissions", readers...)
	submissionHandler := NewSubmissionHandler(deps.HistoryUC)
	submissions.Get("/stray-drafts", submissionHandler.ListStrayDrafts)
	submissions.Get("/:id", submissionHandler.GetByID)
	submissions.Get("/:id/receipt", submissionHandler.Receipt)
}

// guard devuelve JWT + RBAC, o nada si no hay secreto configurado.
func (d RouterDeps) guard(roles ...string) []fiber.Handler {
	if d.JWTSecret == "" {
		return nil
	}
	return []fiber.Handler{AuthMiddleware(d.JWTSecret), RequireRole(roles...)}
}
