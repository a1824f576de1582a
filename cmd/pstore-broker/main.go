// Command pstore-broker runs the GC supervisor: it spawns one vacuum worker
// per store path given on the command line, reaps them as they exit, and
// terminates every still-running worker on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iamNilotpal/pstore/internal/broker"
	"github.com/iamNilotpal/pstore/pkg/logger"
	"github.com/iamNilotpal/pstore/pkg/options"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pstore-broker:", err)
		os.Exit(1)
	}
}

func run() error {
	vacuumdPath := flag.String("vacuumd", "", "path to the vacuum worker executable")
	storePaths := flag.String("stores", "", "comma-separated list of store paths to watch at startup")
	pollInterval := flag.Duration("poll-interval", options.DefaultWatcherPollInterval, "idle poll interval for the watcher loop")
	flag.Parse()

	if *vacuumdPath == "" {
		return fmt.Errorf("-vacuumd is required")
	}

	log, err := logger.New("pstore-broker")
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	sup := broker.New(&broker.Config{
		VacuumdPath:  *vacuumdPath,
		PollInterval: *pollInterval,
		Logger:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Watch(ctx)
	}()

	for _, path := range splitPaths(*storePaths) {
		if err := sup.StartVacuum(ctx, path); err != nil {
			log.Errorw("failed to start vacuum worker", "path", path, "error", err)
			continue
		}
		log.Infow("started vacuum worker", "path", path)
	}

	<-ctx.Done()
	log.Infow("shutdown signal received, terminating gc workers")
	<-done
	return nil
}

func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
