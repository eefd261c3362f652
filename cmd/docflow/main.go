// Command docflow envía facturas de venta y órdenes de compra al ERP desde la terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/docflow-erp/pkg/config"
	"github.com/jhoicas/docflow-erp/pkg/logger"
)

var (
	cfg     *config.Config
	appLog  *logger.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docflow",
	Short: "Submit sales invoices and purchase orders to ERPNext",
	Long: `docflow validates a document locally, makes sure the company, party and items
exist in the ERP (creating them when missing), creates the document as a draft
and submits it, printing every step as it happens.

Configuration is read from .env / config.env and environment variables
(ERP_BASE_URL, ERP_API_KEY, ERP_API_SECRET, DEFAULT_CURRENCY, ...).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		appLog = logger.New(logger.Config{Env: "development", Level: level})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every ERP request")
	rootCmd.AddCommand(validateCmd, submitCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
