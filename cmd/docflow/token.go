package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/docflow-erp/pkg/jwt"
)

var tokenFlags struct {
	user string
	role string
}

// tokenCmd emite tokens para la API; no hay registro de usuarios en el servicio.
var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Issue an API bearer token signed with JWT_SECRET",
	Example: `  docflow token --user ops@example.com --role operator`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch tokenFlags.role {
		case jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleViewer:
		default:
			return fmt.Errorf("unknown role %q (admin, operator, viewer)", tokenFlags.role)
		}
		if cfg.JWT.Secret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		tok, err := jwt.Generate(cfg.JWT.Secret, tokenFlags.user, tokenFlags.role, cfg.JWT.Issuer, cfg.JWT.Expiration)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenFlags.user, "user", "u", "", "user identifier (JWT subject)")
	tokenCmd.Flags().StringVarP(&tokenFlags.role, "role", "r", jwt.RoleOperator, "admin | operator | viewer")
	_ = tokenCmd.MarkFlagRequired("user")
}
