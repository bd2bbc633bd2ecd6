package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clinicbooks/clinicbooks/cmd/clinicbooks/cli"
)

func newBASCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bas",
		Short: "BAS report commands",
	}
	cmd.AddCommand(newBASReportCommand())
	return cmd
}

func newBASReportCommand() *cobra.Command {
	var opts cli.BASReportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a clinic's quarter report",
		Long: `Print a clinic's BAS report for a quarter. Without --quarter the current
quarter under the clinic's financial year convention is used.

Exit status is 10 when the quarter nets to a GST refund.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			c, err := cli.NewBASCLI(rt.reports)
			if err != nil {
				return err
			}
			opts.Stdout, opts.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
			if code := c.ReportCommand(ctx, opts); code != cli.ExitOK {
				// os.Exit skips deferred calls.
				rt.Close()
				os.Exit(code)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.ClinicID, "clinic", "", "clinic id")
	f.StringVar(&opts.Quarter, "quarter", "", "quarter (Q1-Q4)")
	f.IntVar(&opts.Year, "year", 0, "financial year the quarter belongs to")
	f.StringVar(&opts.Format, "format", "human", "output format: human, json or csv")
	f.BoolVar(&opts.Refresh, "refresh", false, "rebuild and overwrite the cached report")
	_ = cmd.MarkFlagRequired("clinic")
	return cmd
}
