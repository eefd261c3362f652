package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/docflow-erp/internal/application/history"
	"github.com/jhoicas/docflow-erp/internal/application/intake"
	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/domain/repository"
	"github.com/jhoicas/docflow-erp/internal/infrastructure/erpnext"
	"github.com/jhoicas/docflow-erp/internal/infrastructure/extraction"
	infrapdf "github.com/jhoicas/docflow-erp/internal/infrastructure/pdf"
	"github.com/jhoicas/docflow-erp/internal/infrastructure/pdfcheck"
	"github.com/jhoicas/docflow-erp/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/docflow-erp/internal/interfaces/http"
	"github.com/jhoicas/docflow-erp/pkg/config"
	"github.com/jhoicas/docflow-erp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("erp", cfg.ERP.BaseURL).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Historial en PostgreSQL: opcional. Sin DB_HOST/DATABASE_URL el servicio funciona sin él.
	var submissionRepo repository.SubmissionRepository
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		submissionRepo = postgres.NewSubmissionRepository(pool)
	} else {
		log.Warn().Msg("base de datos no configurada: historial de envíos deshabilitado")
	}

	erpClient := erpnext.NewClient(cfg.ERP, log.WithComponent("erpnext"))
	orchestrator := submission.NewOrchestrator(erpClient, submission.Defaults(cfg.Defaults))
	submitUC := submission.NewUseCase(orchestrator, submissionRepo, log.WithComponent("submission"))

	// El cliente es nil si no hay EXTRACTION_BASE_URL; la interfaz debe quedar nil también.
	var extractor intake.Extractor
	if c := extraction.NewClient(cfg.Extraction, log.WithComponent("extraction")); c != nil {
		extractor = c
	} else {
		log.Warn().Msg("EXTRACTION_BASE_URL vacío: carga de PDFs deshabilitada")
	}
	intakeUC := intake.NewUseCase(extractor, pdfcheck.NewChecker(), cfg.Upload.MaxBytes, log.WithComponent("intake"))

	historyUC := history.NewUseCase(submissionRepo, infrapdf.NewReceiptGenerator(cfg.App.Name))

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: API sin autenticación")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.Upload.MaxBytes + 1<<20, // margen para el envoltorio multipart
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Duration(cfg.ERP.TimeoutSeconds*8) * time.Second, // un envío hace varias llamadas al ERP
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "DocFlow ERP API",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": cfg.App.Name,
			"endpoints": []string{
				"POST /api/uploads/invoice",
				"POST /api/uploads/po",
				"POST /api/documents/sales-invoices",
				"POST /api/documents/purchase-orders",
				"POST /api/documents/:kind/stream",
				"GET /api/submissions/stray-drafts",
				"GET /api/submissions/:id",
				"GET /api/submissions/:id/receipt",
				"GET /health",
			},
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		erpStatus := "ok"
		if err := erpClient.Ping(pingCtx); err != nil {
			erpStatus = err.Error()
		}
		return c.JSON(fiber.Map{
			"status":     "ok",
			"service":    cfg.App.Name,
			"erp":        erpStatus,
			"history":    submissionRepo != nil,
			"extraction": extractor != nil,
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		SubmitUC:  submitUC,
		IntakeUC:  intakeUC,
		HistoryUC: historyUC,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.WithComponent("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
