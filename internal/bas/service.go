package bas

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/clinicbooks/clinicbooks/internal/ledger"
)

// Report sources reported to the observer.
const (
	SourceCache = "cache"
	SourceBuild = "build"
)

// sharedBuildTimeout bounds a build that outlives the request which started it.
const sharedBuildTimeout = 30 * time.Second

// Log reads the transaction log for a date range.
type Log interface {
	ListPeriod(ctx context.Context, clinicID string, from, to time.Time) ([]ledger.IncomeRecord, []ledger.ExpenseRecord, error)
}

// Configs loads clinic category configs.
type Configs interface {
	CategoryConfig(ctx context.Context, clinicID string) (CategoryConfig, error)
}

// ReportObserver receives report timings.
type ReportObserver interface {
	ObserveReport(source string, elapsed time.Duration)
}

// Service loads a clinic's log and config, generates reports and caches them.
type Service struct {
	log      Log
	configs  Configs
	cache    *Cache
	logger   *slog.Logger
	observer ReportObserver
	group    singleflight.Group
}

// NewService wires the report dependencies. cache may be nil.
func NewService(log Log, configs Configs, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{log: log, configs: configs, cache: cache, logger: logger}
}

// WithObserver attaches a metrics observer.
func (s *Service) WithObserver(o ReportObserver) *Service {
	s.observer = o
	return s
}

// Report returns the clinic's quarter report, served from cache when fresh.
// Concurrent requests for the same quarter share one build.
func (s *Service) Report(ctx context.Context, clinicID string, q Quarter, year int) (Report, error) {
	start := time.Now()
	key, err := s.cache.ReportKey(ctx, clinicID, q, year)
	if err != nil {
		s.logger.Warn("bas cache key", slog.String("clinic", clinicID), slog.Any("error", err))
		return s.build(ctx, clinicID, q, year)
	}
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("bas cache read", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		s.observe(SourceCache, start)
		return cached, nil
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedBuildTimeout)
		defer cancel()
		report, err := s.build(buildCtx, clinicID, q, year)
		if err != nil {
			return Report{}, err
		}
		if err := s.cache.Put(buildCtx, key, report); err != nil {
			s.logger.Warn("bas cache write", slog.String("key", key), slog.Any("error", err))
		}
		return report, nil
	})
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Report{}, res.Err
		}
		s.observe(SourceBuild, start)
		return res.Val.(Report), nil
	}
}

// Refresh rebuilds the report and overwrites the cached copy.
func (s *Service) Refresh(ctx context.Context, clinicID string, q Quarter, year int) (Report, error) {
	report, err := s.build(ctx, clinicID, q, year)
	if err != nil {
		return Report{}, err
	}
	key, err := s.cache.ReportKey(ctx, clinicID, q, year)
	if err != nil {
		return Report{}, fmt.Errorf("bas: cache key: %w", err)
	}
	if err := s.cache.Put(ctx, key, report); err != nil {
		return Report{}, fmt.Errorf("bas: cache write: %w", err)
	}
	return report, nil
}

// CurrentQuarter resolves the quarter containing now under the clinic's convention.
func (s *Service) CurrentQuarter(ctx context.Context, clinicID string, now time.Time) (Quarter, int, error) {
	cfg, err := s.configs.CategoryConfig(ctx, clinicID)
	if err != nil {
		return 0, 0, err
	}
	q, year := CurrentQuarter(now, cfg.FinancialYearStart())
	return q, year, nil
}

// Invalidate drops every cached report of the clinic.
func (s *Service) Invalidate(ctx context.Context, clinicID string) error {
	return s.cache.Invalidate(ctx, clinicID)
}

// ListenForInvalidation calls onInvalidate for every clinic invalidated by
// any instance until ctx ends.
func (s *Service) ListenForInvalidation(ctx context.Context, onInvalidate func(clinicID string)) error {
	return s.cache.ListenForInvalidation(ctx, onInvalidate)
}

func (s *Service) build(ctx context.Context, clinicID string, q Quarter, year int) (Report, error) {
	cfg, err := s.configs.CategoryConfig(ctx, clinicID)
	if err != nil {
		return Report{}, err
	}
	period, err := ResolveQuarter(q, year, cfg.FinancialYearStart())
	if err != nil {
		return Report{}, err
	}
	income, expenses, err := s.log.ListPeriod(ctx, clinicID, period.Start, period.End)
	if err != nil {
		return Report{}, fmt.Errorf("bas: load log: %w", err)
	}
	report, err := GenerateReport(q, year, cfg, income, expenses)
	if err != nil {
		return Report{}, err
	}
	report.ClinicID = clinicID
	s.logger.Debug("bas report built",
		slog.String("clinic", clinicID),
		slog.String("quarter", report.Quarter),
		slog.Int("year", year),
		slog.Int("income", report.IncomeCount),
		slog.Int("expenses", report.ExpenseCount))
	return report, nil
}

func (s *Service) observe(source string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveReport(source, time.Since(start))
	}
}
