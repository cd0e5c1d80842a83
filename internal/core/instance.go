package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned when the PID file names a live process.
var ErrAlreadyRunning = errors.New("catbar is already running")

// RunningPID returns the pid recorded in path if that process is alive. A
// stale or unreadable file is removed.
func RunningPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		os.Remove(path)
		return 0, false
	}
	if err := syscall.Kill(pid, 0); err != nil && !errors.Is(err, syscall.EPERM) {
		os.Remove(path)
		return 0, false
	}
	return pid, true
}

// AcquirePIDFile records the current process in path. It fails with
// ErrAlreadyRunning while another live instance holds the file. The returned
// function removes the file.
func AcquirePIDFile(path string) (func(), error) {
	if pid, ok := RunningPID(path); ok && pid != os.Getpid() {
		return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to write pid file: %w", err)
	}
	return func() { os.Remove(path) }, nil
}
