package daemon

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	// detachEnvVar marks the re-executed background server process.
	detachEnvVar = "PHASEGRAPH_DETACHED"

	// socketWaitTimeout is how long the parent waits for the child's socket.
	socketWaitTimeout = 2 * time.Second

	// socketCheckInterval is how often to check for socket availability.
	socketCheckInterval = 50 * time.Millisecond
)

// Detach re-executes the current command as a background process in its own
// session. The parent gets shouldExit=true once the child's socket answers (or
// the wait times out); the child gets shouldExit=false and carries on serving.
func Detach(socketPath string) (shouldExit bool, pid int, err error) {
	if IsDetached() {
		return false, os.Getpid(), nil
	}

	executable, err := os.Executable()
	if err != nil {
		return false, 0, fmt.Errorf("get executable path: %w", err)
	}

	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), detachEnvVar+"=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return false, 0, fmt.Errorf("start background server: %w", err)
	}
	childPID := cmd.Process.Pid

	if err := waitForSocketReady(socketPath, socketWaitTimeout); err != nil {
		fmt.Printf("Started store server (pid %d) - socket not yet available\n", childPID)
	} else {
		fmt.Printf("Started store server (pid %d)\n", childPID)
	}
	return true, childPID, nil
}

// IsDetached reports whether this process is the re-executed background server.
func IsDetached() bool {
	return os.Getenv(detachEnvVar) == "1"
}

// waitForSocketReady waits for the socket to accept connections.
func waitForSocketReady(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, socketCheckInterval)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(socketCheckInterval)
	}
	return fmt.Errorf("socket not available after %v", timeout)
}
