package broker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestSupervisor(t *testing.T) (*Supervisor, context.CancelFunc) {
	t.Helper()
	sup := New(&Config{
		VacuumdPath:  "/bin/sleep",
		PollInterval: 50 * time.Millisecond,
		Logger:       zap.NewNop().Sugar(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	go sup.Watch(ctx)
	t.Cleanup(cancel)
	return sup, cancel
}

// Tests use "path" values that double as the argument passed to
// /bin/sleep, so the spawned worker stays alive (rather than exiting
// immediately on a path it can't parse) for the duration of each test.

func TestStartVacuumRegistersWorker(t *testing.T) {
	t.Parallel()
	sup, _ := newTestSupervisor(t)
	ctx := context.Background()

	if err := sup.StartVacuum(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	if _, ok := sup.processes.GetRight("5"); !ok {
		t.Fatal("expected worker to be registered")
	}
}

func TestStopVacuumReportsPresence(t *testing.T) {
	t.Parallel()
	sup, _ := newTestSupervisor(t)
	ctx := context.Background()

	found, err := sup.StopVacuum(ctx, "never-started")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected no worker registered for this path")
	}

	if err := sup.StartVacuum(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	found, err = sup.StopVacuum(ctx, "5")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected worker to be found and stopped")
	}
}

func TestStartVacuumReplacesPriorEntryForSamePath(t *testing.T) {
	t.Parallel()
	sup, _ := newTestSupervisor(t)
	ctx := context.Background()

	if err := sup.StartVacuum(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	firstPid, _ := sup.processes.GetRight("5")

	if err := sup.StartVacuum(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	secondPid, ok := sup.processes.GetRight("5")
	if !ok {
		t.Fatal("expected a worker registered after second start")
	}
	if secondPid == firstPid {
		t.Fatal("expected a distinct pid for the replacement worker")
	}
}
