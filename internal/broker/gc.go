// Package broker implements the GC supervisor: a watcher that spawns one
// vacuum (garbage-collection) worker process per store path on request,
// tracks them in a path<->pid Bimap, reaps them as they exit, and signals
// every still-running worker to terminate on shutdown.
package broker

import (
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval bounds how long the watcher waits between otherwise
// idle iterations; on the order of minutes, per spec.
const DefaultPollInterval = 5 * time.Minute

// exitEvent reports that a supervised worker terminated.
type exitEvent struct {
	path string
	pid  int
	err  error
}

// Supervisor is the broker's GC watcher: it owns the path<->pid map, which
// is only ever mutated from the watcher goroutine itself (every request
// reaches it through channels the watcher selects on).
type Supervisor struct {
	log         *zap.SugaredLogger
	vacuumdPath string
	pollEvery   time.Duration

	processes *Bimap[string, int]

	startReq chan startRequest
	stopReq  chan stopRequest
	exitCh   chan exitEvent
	wake     chan struct{}
	stopped  chan struct{}
}

type startRequest struct {
	path  string
	reply chan error
}

type stopRequest struct {
	path  string
	reply chan bool
}

// Config carries the parameters needed to construct a Supervisor.
type Config struct {
	VacuumdPath  string
	PollInterval time.Duration
	Logger       *zap.SugaredLogger
}

// New constructs a Supervisor. Call Watch in its own goroutine to start
// servicing requests; until then, StartVacuum/StopVacuum block.
func New(config *Config) *Supervisor {
	pollEvery := config.PollInterval
	if pollEvery == 0 {
		pollEvery = DefaultPollInterval
	}
	return &Supervisor{
		log:         config.Logger,
		vacuumdPath: config.VacuumdPath,
		pollEvery:   pollEvery,
		processes:   NewBimap[string, int](),
		startReq:    make(chan startRequest),
		stopReq:     make(chan stopRequest),
		exitCh:      make(chan exitEvent, MaxProcesses),
		wake:        make(chan struct{}, 1),
		stopped:     make(chan struct{}),
	}
}

// StartVacuum spawns a vacuum worker for path and records it in the map,
// replacing (but not killing) any previous worker already registered for
// that path. It fails if MaxProcesses workers are already supervised.
func (s *Supervisor) StartVacuum(ctx context.Context, path string) error {
	reply := make(chan error, 1)
	select {
	case s.startReq <- startRequest{path: path, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return errSupervisorStopped
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopVacuum kills the worker registered for path, if any, and reports
// whether one was found.
func (s *Supervisor) StopVacuum(ctx context.Context, path string) (bool, error) {
	reply := make(chan bool, 1)
	select {
	case s.stopReq <- stopRequest{path: path, reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.stopped:
		return false, errSupervisorStopped
	}
	select {
	case found := <-reply:
		return found, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Watch runs the watcher loop until ctx is cancelled. On exit it sends a
// terminate signal to every still-supervised worker's process group and
// closes s.stopped.
func (s *Supervisor) Watch(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.terminateAll()
			return

		case req := <-s.startReq:
			req.reply <- s.handleStart(req.path)

		case req := <-s.stopReq:
			req.reply <- s.handleStop(req.path)

		case ev := <-s.exitCh:
			if ev.err != nil {
				s.log.Infow("gc worker exited", "path", ev.path, "pid", ev.pid, "error", ev.err)
			} else {
				s.log.Infow("gc worker exited", "path", ev.path, "pid", ev.pid)
			}
			if cur, ok := s.processes.GetRight(ev.path); ok && cur == ev.pid {
				s.processes.EraseLeft(ev.path)
			}

		case <-ticker.C:
			// Idle tick; nothing to do beyond the select itself.
		}
	}
}

func (s *Supervisor) handleStart(path string) error {
	if s.processes.Size() >= MaxProcesses && !s.processes.PresentLeft(path) {
		return errTooManyWorkers
	}
	cmd, err := spawn(s.log, s.vacuumdPath, path)
	if err != nil {
		return err
	}
	pid := cmd.Process.Pid
	s.processes.Set(path, pid)
	go s.awaitExit(path, pid, cmd)
	return nil
}

func (s *Supervisor) handleStop(path string) bool {
	pid, ok := s.processes.GetRight(path)
	if !ok {
		return false
	}
	if err := kill(pid); err != nil {
		s.log.Infow("failed to signal gc worker", "path", path, "pid", pid, "error", err)
	}
	s.processes.EraseLeft(path)
	return true
}

func (s *Supervisor) awaitExit(path string, pid int, cmd *exec.Cmd) {
	err := cmd.Wait()
	select {
	case s.exitCh <- exitEvent{path: path, pid: pid, err: err}:
	case <-s.stopped:
	}
}

func (s *Supervisor) terminateAll() {
	for _, path := range s.processes.Lefts() {
		pid, ok := s.processes.GetRight(path)
		if !ok {
			continue
		}
		if err := kill(pid); err != nil {
			s.log.Infow("failed to signal gc worker during shutdown", "path", path, "pid", pid, "error", err)
		}
	}
}
