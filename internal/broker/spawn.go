package broker

import (
	"fmt"
	"os/exec"
	"syscall"

	"go.uber.org/zap"
)

// MaxProcesses is the platform-dependent cap on concurrently supervised GC
// workers. The POSIX value mirrors the original (50); there is no
// Windows-specific MAXIMUM_WAIT_OBJECTS-derived cap here since this
// implementation does not target Windows.
const MaxProcesses = 50

// spawn starts exePath with the given arguments in its own process group
// (Setpgid) so that Kill can signal every process it forks, not just the
// immediate child, and returns the started command.
func spawn(log *zap.SugaredLogger, exePath string, args ...string) (*exec.Cmd, error) {
	cmd := exec.Command(exePath, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	log.Infow("starting gc worker", "path", exePath, "args", args)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("broker: failed to start %q: %w", exePath, err)
	}
	log.Infow("gc worker running", "path", exePath, "pid", cmd.Process.Pid)
	return cmd, nil
}

// kill sends SIGINT to the process group rooted at pid, the terminate signal
// the watcher loop uses on both a single worker stop and a full shutdown.
func kill(pid int) error {
	return syscall.Kill(-pid, syscall.SIGINT)
}
