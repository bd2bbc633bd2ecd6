package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clinicbooks/clinicbooks/internal/bas"
	jobmetrics "github.com/clinicbooks/clinicbooks/internal/jobs"
)

// ReportRefresher rebuilds and caches quarter reports.
type ReportRefresher interface {
	Refresh(ctx context.Context, clinicID string, q bas.Quarter, year int) (bas.Report, error)
	CurrentQuarter(ctx context.Context, clinicID string, now time.Time) (bas.Quarter, int, error)
}

// ClinicLister enumerates clinics whose reports should be kept warm.
type ClinicLister interface {
	ActiveClinics(ctx context.Context) ([]string, error)
}

// ReportEnqueuer queues a generate task.
type ReportEnqueuer interface {
	EnqueueReport(ctx context.Context, clinicID string, q bas.Quarter, year int) (string, error)
}

// BASReportJob handles the generate and sweep tasks.
type BASReportJob struct {
	Reports  ReportRefresher
	Clinics  ClinicLister
	Enqueuer ReportEnqueuer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewBASReportJob wires dependencies for the report handlers.
func NewBASReportJob(reports ReportRefresher, clinics ClinicLister, enqueuer ReportEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *BASReportJob {
	return &BASReportJob{
		Reports:  reports,
		Clinics:  clinics,
		Enqueuer: enqueuer,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskBASReportGenerate.
func (j *BASReportJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("bas report: handler not configured")
	}
	tracker := j.Metrics.Track(TaskBASReportGenerate)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	var payload BASReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ClinicID == "" {
		return fmt.Errorf("bas report: bad payload: %w", asynq.SkipRetry)
	}

	logger := j.logger().With(slog.String("clinic", payload.ClinicID))
	q, year := bas.Quarter(payload.Quarter), payload.Year
	if q == 0 || year == 0 {
		var err error
		q, year, err = j.Reports.CurrentQuarter(ctx, payload.ClinicID, j.clock())
		if err != nil {
			return j.permanent(logger, "resolve current quarter", err)
		}
	}

	report, err := j.Reports.Refresh(ctx, payload.ClinicID, q, year)
	if err != nil {
		return j.permanent(logger, "generate bas report", err)
	}
	j.Metrics.AddReports(1)
	logger.Info("bas report cached",
		slog.String("quarter", report.Quarter),
		slog.Int("year", report.Year),
		slog.String("net_gst_position", report.Totals.NetGSTPosition.StringFixed(2)))
	return nil
}

// HandleSweep processes TaskBASReportSweep by queueing the current quarter of
// every active clinic.
func (j *BASReportJob) HandleSweep(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Clinics == nil || j.Enqueuer == nil {
		return errors.New("bas sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskBASReportSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	clinics, err := j.Clinics.ActiveClinics(ctx)
	if err != nil {
		j.logger().Error("list active clinics", slog.Any("error", err))
		return err
	}
	queued := 0
	for _, clinicID := range clinics {
		if _, err := j.Enqueuer.EnqueueReport(ctx, clinicID, 0, 0); err != nil {
			j.logger().Error("enqueue bas report", slog.String("clinic", clinicID), slog.Any("error", err))
			return err
		}
		queued++
	}
	j.logger().Info("bas sweep queued reports", slog.Int("clinics", queued))
	return nil
}

// permanent logs err and stops retries for missing config or bad quarters.
func (j *BASReportJob) permanent(logger *slog.Logger, msg string, err error) error {
	logger.Error(msg, slog.Any("error", err))
	if errors.Is(err, bas.ErrConfigNotFound) || errors.Is(err, bas.ErrInvalidQuarter) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

func (j *BASReportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
