package audit

import (
	"testing"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/service"
)

func TestStartRejectsBadCronSpec(t *testing.T) {
	a := New(service.NewScheduler(repository.NewMemory()), "not a cron spec")
	if err := a.Start(); err == nil {
		t.Fatal("Start accepted a malformed cron expression")
	}
}

func TestEmptySpecDisablesSweep(t *testing.T) {
	a := New(service.NewScheduler(repository.NewMemory()), "")
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Stop must be safe when no scheduler was started.
	a.Stop()
}
