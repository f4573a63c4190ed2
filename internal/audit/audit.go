// Package audit runs the periodic system-wide conflict sweep. The
// sweep is reporting-only: it never blocks a mutation, it surfaces
// double-bookings that slipped in (e.g. through direct database edits)
// via the log and the open-conflicts gauge.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/metrics"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/service"
	"github.com/robfig/cron/v3"
)

// Auditor schedules conflict sweeps with a cron expression.
type Auditor struct {
	sched *service.Scheduler
	spec  string
	cron  *cron.Cron
}

// New constructs an Auditor; spec is a standard 5-field cron
// expression. An empty spec disables the sweep.
func New(sched *service.Scheduler, spec string) *Auditor {
	return &Auditor{sched: sched, spec: spec}
}

// Start registers the sweep and starts the cron scheduler. One sweep
// runs immediately so the gauge is populated at boot.
func (a *Auditor) Start() error {
	if a.spec == "" {
		return nil
	}
	a.cron = cron.New()
	if _, err := a.cron.AddFunc(a.spec, a.Sweep); err != nil {
		return err
	}
	a.cron.Start()
	go a.Sweep()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (a *Auditor) Stop() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
}

// Sweep runs the global conflict detection once and reports findings.
func (a *Auditor) Sweep() {
	start := time.Now()
	conflicts, err := a.sched.AllConflicts(context.Background())
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("conflict sweep failed: %v", err)
		return
	}

	metrics.OpenConflicts.Set(float64(len(conflicts)))
	for _, c := range conflicts {
		log.Printf("conflict: resource %q double-booked by %q [%s - %s] and %q [%s - %s]",
			c.Resource.Name,
			c.EventA.Title, c.EventA.StartTime.Format("2006-01-02 15:04"), c.EventA.EndTime.Format("15:04"),
			c.EventB.Title, c.EventB.StartTime.Format("2006-01-02 15:04"), c.EventB.EndTime.Format("15:04"),
		)
	}
}
