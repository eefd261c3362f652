package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/docflow-erp/internal/domain/docflow"
)

var validateFlags struct {
	kind string
	file string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a document locally without contacting the ERP",
	Example: `  docflow validate --kind invoice --file invoice.json
  docflow validate --kind po --file order.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := readDocument(validateFlags.kind, validateFlags.file)
		if err != nil {
			return err
		}
		if verr := docflow.Validate(h, time.Now()); verr != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "INVALID %s: %s\n", verr.Field, verr.Message)
			return errors.New("validation failed")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK %s for %q, %d lines, total %s\n",
			h.Kind, h.PartyName, len(h.Lines), h.Total().StringFixed(2))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFlags.kind, "kind", "k", "invoice", "document kind: invoice | po")
	validateCmd.Flags().StringVarP(&validateFlags.file, "file", "f", "", "JSON document")
	_ = validateCmd.MarkFlagRequired("file")
}
