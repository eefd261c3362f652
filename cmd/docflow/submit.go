package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/docflow-erp/internal/application/dto"
	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
	"github.com/jhoicas/docflow-erp/internal/domain/repository"
	"github.com/jhoicas/docflow-erp/internal/infrastructure/erpnext"
	"github.com/jhoicas/docflow-erp/internal/infrastructure/postgres"
)

var submitFlags struct {
	kind string
	file string
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Create and submit a document in the ERP",
	Long: `Runs the full submission: local validation, company/party/item resolution,
draft creation and submit. Status lines go to stderr as they happen; the final
result is printed as JSON on stdout. Exits with status 1 on failure.`,
	Example: `  docflow submit --kind invoice --file invoice.json
  docflow submit -k po -f order.json > result.json`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitFlags.kind, "kind", "k", "invoice", "document kind: invoice | po")
	submitCmd.Flags().StringVarP(&submitFlags.file, "file", "f", "", "JSON document")
	_ = submitCmd.MarkFlagRequired("file")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	h, err := readDocument(submitFlags.kind, submitFlags.file)
	if err != nil {
		return err
	}

	// Ctrl+C no corta el envío a mitad (el orquestador ignora la cancelación),
	// pero sí la conexión inicial a la base de datos.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var history repository.SubmissionRepository
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("history database: %w", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("history migrations: %w", err)
		}
		history = postgres.NewSubmissionRepository(pool)
	}

	client := erpnext.NewClient(cfg.ERP, appLog.WithComponent("erpnext"))
	uc := submission.NewUseCase(
		submission.NewOrchestrator(client, submission.Defaults(cfg.Defaults)),
		history,
		appLog.WithComponent("submission"),
	)

	stderr := cmd.ErrOrStderr()
	sink := submission.SinkFunc(func(ev entity.StatusEvent) {
		fmt.Fprintf(stderr, "[%d] %s\n", ev.Sequence, ev.Message)
	})

	res, err := uc.Submit(ctx, h, sink)
	if perr := printJSON(cmd.OutOrStdout(), dto.NewWorkflowResultResponse(res)); perr != nil {
		return perr
	}
	if err != nil {
		var serr *submission.SubmissionError
		if errors.As(err, &serr) {
			fmt.Fprintf(stderr, "\nFailed at %s (%s): %s\n", serr.Step, serr.Classification.Kind, serr.Classification.Message)
			if serr.Classification.Remediation != "" {
				fmt.Fprintf(stderr, "Remediation: %s\n", serr.Classification.Remediation)
			}
			if res.FinalState == entity.FinalStateDraft {
				fmt.Fprintf(stderr, "Draft %s was left in the ERP and needs manual cleanup.\n", res.DocumentID)
			}
		}
		return errors.New("submission failed")
	}
	return nil
}
