// Package health aggregates component checks into one report.
package health

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/atomic"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the index storage is unusable.
	Unhealthy Status = "error"
	// InMaintenance indicates queries are switched off on purpose.
	InMaintenance Status = "maintenance"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Maintenance is a process-wide switch that takes the query endpoint down.
type Maintenance struct {
	on atomic.Bool
}

// NewMaintenance returns a switch in the given state.
func NewMaintenance(on bool) *Maintenance {
	m := &Maintenance{}
	m.on.Store(on)
	return m
}

// Set turns maintenance mode on or off.
func (m *Maintenance) Set(on bool) { m.on.Store(on) }

// Enabled reports whether maintenance mode is on. A nil switch is off.
func (m *Maintenance) Enabled() bool { return m != nil && m.on.Load() }

// Service coordinates health checks.
type Service struct {
	storage     Checker
	scheduler   Checker
	maintenance *Maintenance
}

// New creates a Service. scheduler and maintenance can be nil.
func New(storage, scheduler Checker, maintenance *Maintenance) *Service {
	return &Service{storage: storage, scheduler: scheduler, maintenance: maintenance}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	storageOK := s.storage.HealthCheck(ctx) == nil
	checks["storage"] = result(storageOK)

	schedulerOK := true
	if s.scheduler != nil {
		schedulerOK = s.scheduler.HealthCheck(ctx) == nil
		checks["optimize"] = result(schedulerOK)
	}

	status := Healthy
	switch {
	case !storageOK:
		status = Unhealthy
	case s.maintenance.Enabled():
		status = InMaintenance
	case !schedulerOK:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}

// DirChecker checks that a directory exists and is readable.
func DirChecker(path string) Checker {
	return CheckerFunc(func(context.Context) error {
		f, err := os.Open(path) //nolint:gosec // configured data dir
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		st, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if !st.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	})
}
