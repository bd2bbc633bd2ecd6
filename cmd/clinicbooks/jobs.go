package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicbooks/clinicbooks/cmd/clinicbooks/cli"
	"github.com/clinicbooks/clinicbooks/internal/app"
	"github.com/clinicbooks/clinicbooks/internal/bas"
	"github.com/clinicbooks/clinicbooks/jobs"
)

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage background report jobs",
	}
	cmd.AddCommand(newJobsTriggerCommand(), newJobsStatsCommand())
	return cmd
}

func openJobsCLI() (*cli.JobsCLI, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cli.NewJobsCLI(cfg.RedisAddr)
}

func newJobsTriggerCommand() *cobra.Command {
	var (
		clinicID string
		quarter  string
		year     int
	)
	cmd := &cobra.Command{
		Use:       "trigger [" + jobs.TaskBASReportGenerate + "|" + jobs.TaskBASReportSweep + "]",
		Short:     "Enqueue a report job",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskBASReportGenerate, jobs.TaskBASReportSweep},
		RunE: func(cmd *cobra.Command, args []string) error {
			var q bas.Quarter
			if quarter != "" {
				var err error
				if q, err = bas.ParseQuarter(quarter); err != nil {
					return err
				}
				if year <= 0 {
					return fmt.Errorf("%w: --year is required with --quarter", bas.ErrInvalidQuarter)
				}
			} else if year != 0 {
				return fmt.Errorf("%w: --quarter is required with --year", bas.ErrInvalidQuarter)
			}
			c, err := openJobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			info, err := c.Trigger(cmd.Context(), args[0], clinicID, q, year)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().StringVar(&clinicID, "clinic", "", "clinic id for "+jobs.TaskBASReportGenerate)
	cmd.Flags().StringVar(&quarter, "quarter", "", "quarter; defaults to the current one")
	cmd.Flags().IntVar(&year, "year", 0, "financial year of --quarter")
	return cmd
}

func newJobsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the report queue counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openJobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			stats, err := c.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
			return nil
		},
	}
}
