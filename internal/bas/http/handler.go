// Package bashttp exposes BAS reports over JSON and CSV.
package bashttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/clinicbooks/clinicbooks/internal/bas"
	"github.com/clinicbooks/clinicbooks/internal/bas/export"
	"github.com/clinicbooks/clinicbooks/internal/platform/httpx"
)

// ReportService is the report contract used by the handler.
type ReportService interface {
	Report(ctx context.Context, clinicID string, q bas.Quarter, year int) (bas.Report, error)
	CurrentQuarter(ctx context.Context, clinicID string, now time.Time) (bas.Quarter, int, error)
}

// Enqueuer schedules a background rebuild of a quarter report.
type Enqueuer interface {
	EnqueueReport(ctx context.Context, clinicID string, q bas.Quarter, year int) (string, error)
}

// Handler serves clinic BAS reports.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	jobs      Enqueuer
	rateLimit int
	now       func() time.Time
}

// NewHandler constructs the handler. jobs may be nil, which disables refresh.
func NewHandler(logger *slog.Logger, service ReportService, jobs Enqueuer, rateLimit int) *Handler {
	if rateLimit <= 0 {
		rateLimit = 30
	}
	return &Handler{logger: logger, service: service, jobs: jobs, rateLimit: rateLimit, now: time.Now}
}

// MountRoutes registers the report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.rateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, clinicKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "report rate limit exceeded")
		}),
	)
	r.Route("/api/clinics/{clinicID}", func(r chi.Router) {
		r.Use(limiter)
		r.Get("/bas", h.handleReport)
		r.Get("/bas.csv", h.handleCSV)
		r.Post("/bas/refresh", h.handleRefresh)
	})
}

func clinicKey(r *http.Request) (string, error) {
	return "clinic:" + chi.URLParam(r, "clinicID"), nil
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteReportCSV(&buf, report); err != nil {
		h.logger.Error("bas csv export", slog.String("clinic", report.ClinicID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := fmt.Sprintf("bas-%s-%d-%s.csv", report.ClinicID, report.Year, report.Quarter)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "background jobs disabled")
		return
	}
	clinicID, q, year, ok := h.parsePeriod(w, r)
	if !ok {
		return
	}
	id, err := h.jobs.EnqueueReport(r.Context(), clinicID, q, year)
	if err != nil {
		h.logger.Error("enqueue bas report", slog.String("clinic", clinicID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"taskId":   id,
		"clinicId": clinicID,
		"quarter":  q.String(),
		"year":     year,
	})
}

func (h *Handler) loadReport(w http.ResponseWriter, r *http.Request) (bas.Report, bool) {
	clinicID, q, year, ok := h.parsePeriod(w, r)
	if !ok {
		return bas.Report{}, false
	}
	report, err := h.service.Report(r.Context(), clinicID, q, year)
	if err != nil {
		h.respondServiceError(w, clinicID, err)
		return bas.Report{}, false
	}
	return report, true
}

// parsePeriod reads quarter and year, defaulting both to the quarter
// containing today when quarter is omitted.
func (h *Handler) parsePeriod(w http.ResponseWriter, r *http.Request) (string, bas.Quarter, int, bool) {
	clinicID := strings.TrimSpace(chi.URLParam(r, "clinicID"))
	if clinicID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "clinic id required")
		return "", 0, 0, false
	}
	query := r.URL.Query()
	rawQuarter := strings.TrimSpace(query.Get("quarter"))
	if rawQuarter == "" {
		q, year, err := h.service.CurrentQuarter(r.Context(), clinicID, h.now())
		if err != nil {
			h.respondServiceError(w, clinicID, err)
			return "", 0, 0, false
		}
		return clinicID, q, year, true
	}
	q, err := bas.ParseQuarter(rawQuarter)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return "", 0, 0, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(query.Get("year")))
	if err != nil || year < 1900 || year > 9999 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "year must be a four digit number")
		return "", 0, 0, false
	}
	return clinicID, q, year, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, clinicID string, err error) {
	switch {
	case errors.Is(err, bas.ErrConfigNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, bas.ErrInvalidQuarter):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	default:
		h.logger.Error("bas report", slog.String("clinic", clinicID), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
