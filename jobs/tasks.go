package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBASReportGenerate rebuilds and caches one clinic quarter.
	TaskBASReportGenerate = "bas:report.generate"
	// TaskBASReportSweep fans out generate tasks for every active clinic.
	TaskBASReportSweep = "bas:report.sweep"
)

// BASReportPayload identifies the quarter to rebuild. Zero Quarter and Year
// mean the quarter containing the run date.
type BASReportPayload struct {
	ClinicID string `json:"clinicId"`
	Quarter  int    `json:"quarter,omitempty"`
	Year     int    `json:"year,omitempty"`
}

// NewBASReportTask constructs a generate task.
func NewBASReportTask(payload BASReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBASReportGenerate, data), nil
}

// NewBASReportSweepTask constructs the nightly sweep task.
func NewBASReportSweepTask() *asynq.Task {
	return asynq.NewTask(TaskBASReportSweep, nil)
}
