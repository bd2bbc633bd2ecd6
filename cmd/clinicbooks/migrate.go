package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicbooks/clinicbooks/internal/app"
	"github.com/clinicbooks/clinicbooks/internal/platform/db"
)

func newMigrateCommand() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the transaction log and clinic settings tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), db.Schema())
				return err
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pool, err := db.New(cmd.Context(), cfg.PGDSN)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := db.ApplySchema(cmd.Context(), pool); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the DDL instead of applying it")
	return cmd
}
