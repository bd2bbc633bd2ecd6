package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/clinicbooks/clinicbooks/internal/bas"
	"github.com/clinicbooks/clinicbooks/internal/bas/export"
)

// Exit codes returned by ReportCommand.
const (
	ExitOK     = 0
	ExitUsage  = 1
	ExitFailed = 2
	ExitRefund = 10
)

const (
	formatJSON  = "json"
	formatCSV   = "csv"
	formatHuman = "human"
)

// ReportSource builds quarter reports for the CLI.
type ReportSource interface {
	Report(ctx context.Context, clinicID string, q bas.Quarter, year int) (bas.Report, error)
	Refresh(ctx context.Context, clinicID string, q bas.Quarter, year int) (bas.Report, error)
	CurrentQuarter(ctx context.Context, clinicID string, now time.Time) (bas.Quarter, int, error)
}

// BASReportOptions defines the flags of the bas report command.
type BASReportOptions struct {
	ClinicID string
	Quarter  string
	Year     int
	Format   string
	Refresh  bool
	Now      time.Time
	Stdout   io.Writer
	Stderr   io.Writer
}

// BASCLI runs report commands against a report source.
type BASCLI struct {
	source ReportSource
}

// NewBASCLI wires the report source.
func NewBASCLI(source ReportSource) (*BASCLI, error) {
	if source == nil {
		return nil, errors.New("bas cli: report source required")
	}
	return &BASCLI{source: source}, nil
}

// ReportCommand prints a quarter report. It exits with ExitRefund when the
// quarter nets to a GST refund so scripts can branch on the position.
func (c *BASCLI) ReportCommand(ctx context.Context, opts BASReportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.ClinicID == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "bas report: --clinic is required")
		return ExitUsage
	}
	if opts.Format == "" {
		opts.Format = formatHuman
	}
	if opts.Format != formatJSON && opts.Format != formatCSV && opts.Format != formatHuman {
		_, _ = fmt.Fprintf(opts.Stderr, "bas report: unknown format %q (json, csv, human)\n", opts.Format)
		return ExitUsage
	}

	q, year, err := c.resolvePeriod(ctx, opts)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "bas report: %v\n", err)
		if errors.Is(err, bas.ErrInvalidQuarter) {
			return ExitUsage
		}
		return ExitFailed
	}

	load := c.source.Report
	if opts.Refresh {
		load = c.source.Refresh
	}
	report, err := load(ctx, opts.ClinicID, q, year)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "bas report: %v\n", err)
		return ExitFailed
	}

	switch opts.Format {
	case formatJSON:
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	case formatCSV:
		err = export.WriteReportCSV(opts.Stdout, report)
	default:
		renderReportHuman(opts.Stdout, report, opts.Refresh)
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "bas report: write output: %v\n", err)
		return ExitFailed
	}
	if report.Totals.GSTRefund.IsPositive() {
		return ExitRefund
	}
	return ExitOK
}

func (c *BASCLI) resolvePeriod(ctx context.Context, opts BASReportOptions) (bas.Quarter, int, error) {
	if opts.Quarter == "" {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		return c.source.CurrentQuarter(ctx, opts.ClinicID, now)
	}
	q, err := bas.ParseQuarter(opts.Quarter)
	if err != nil {
		return 0, 0, err
	}
	if opts.Year <= 0 {
		return 0, 0, fmt.Errorf("%w: --year is required with --quarter", bas.ErrInvalidQuarter)
	}
	return q, opts.Year, nil
}

func renderReportHuman(out io.Writer, r bas.Report, refreshed bool) {
	suffix := ""
	if refreshed {
		suffix = " (refreshed)"
	}
	_, _ = fmt.Fprintf(out, "BAS %s %d for clinic %s%s\n", r.Quarter, r.Year, r.ClinicID, suffix)
	_, _ = fmt.Fprintf(out, "Period: %s\n", r.Period)
	_, _ = fmt.Fprintf(out, "Transactions: %d income, %d expense\n", r.IncomeCount, r.ExpenseCount)
	_, _ = fmt.Fprintf(out, "G1  total sales        %s\n", export.FormatAUD(r.BASFields.G1))
	_, _ = fmt.Fprintf(out, "G3  GST-free sales     %s\n", export.FormatAUD(r.BASFields.G3))
	_, _ = fmt.Fprintf(out, "G10 capital purchases  %s\n", export.FormatAUD(r.BASFields.G10))
	_, _ = fmt.Fprintf(out, "G11 other purchases    %s\n", export.FormatAUD(r.BASFields.G11))
	_, _ = fmt.Fprintf(out, "1A  GST on sales       %s\n", export.FormatAUD(r.BASFields.A1))
	_, _ = fmt.Fprintf(out, "1B  GST on purchases   %s\n", export.FormatAUD(r.BASFields.B1))
	if r.Totals.GSTRefund.IsPositive() {
		_, _ = fmt.Fprintf(out, "Refund due: %s\n", export.FormatAUD(r.Totals.GSTRefund))
		return
	}
	_, _ = fmt.Fprintf(out, "Payable: %s\n", export.FormatAUD(r.Totals.GSTPayable))
}
