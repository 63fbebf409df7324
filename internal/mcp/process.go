// ABOUTME: Process supervisor for tool server child processes.
// ABOUTME: Spawns with piped stdio and guarantees graceful-then-forced teardown.

package mcp

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// DefaultTerminateGrace is how long Terminate waits for a cooperative
// exit before force-killing the process.
const DefaultTerminateGrace = 5 * time.Second

// Supervisor spawns tool server processes and owns their teardown policy.
type Supervisor struct {
	// PythonBin runs .py tool servers. Defaults to "python3".
	PythonBin string

	// Grace bounds the wait between a cooperative stop request and a
	// forced kill. Defaults to DefaultTerminateGrace.
	Grace time.Duration

	logger *slog.Logger
}

// NewSupervisor creates a Supervisor with default settings.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		PythonBin: "python3",
		Grace:     DefaultTerminateGrace,
		logger:    logger.With("component", "supervisor"),
	}
}

// ChildProcess is a running tool server and its three standard streams.
// It is owned by exactly one Session and never reused after termination.
type ChildProcess struct {
	Path   string
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	cmd    *exec.Cmd
	grace  time.Duration
	logger *slog.Logger

	termOnce sync.Once
}

// Spawn starts the tool server at path with stdin/stdout/stderr pipes.
// Python files run unbuffered under the configured interpreter; anything
// else is executed directly. The child inherits an environment that
// forces UTF-8 text on its pipes so a stray byte cannot abort an
// exchange. Failures are reported as *SpawnError and never retried.
func (s *Supervisor) Spawn(path string) (*ChildProcess, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &SpawnError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &SpawnError{Path: path, Err: syscall.EISDIR}
	}

	var cmd *exec.Cmd
	if filepath.Ext(path) == ".py" {
		cmd = exec.Command(s.PythonBin, "-u", path)
	} else {
		cmd = exec.Command(path)
	}
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8", "PYTHONUNBUFFERED=1")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SpawnError{Path: path, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, &SpawnError{Path: path, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, &SpawnError{Path: path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return nil, &SpawnError{Path: path, Err: err}
	}

	grace := s.Grace
	if grace <= 0 {
		grace = DefaultTerminateGrace
	}

	s.logger.Debug("tool server started", "path", path, "pid", cmd.Process.Pid)

	return &ChildProcess{
		Path:   path,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		cmd:    cmd,
		grace:  grace,
		logger: s.logger,
	}, nil
}

// Terminate stops the child process: cooperative SIGTERM first, forced
// kill after the grace period. It is idempotent, never returns an error,
// and must be called on every code path that leaves the session scope.
func (p *ChildProcess) Terminate() {
	p.termOnce.Do(p.terminate)
}

func (p *ChildProcess) terminate() {
	// Closing stdin tells well-behaved servers their input is done.
	if err := p.Stdin.Close(); err != nil {
		p.logger.Debug("closing tool server stdin", "path", p.Path, "error", err)
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		p.logger.Debug("signaling tool server", "path", p.Path, "error", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- p.cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			p.logger.Debug("tool server exited", "path", p.Path, "error", err)
		}
	case <-time.After(p.grace):
		p.logger.Warn("tool server did not exit in time, killing", "path", p.Path, "grace", p.grace)
		if err := p.cmd.Process.Kill(); err != nil {
			p.logger.Error("killing tool server", "path", p.Path, "error", err)
		}
		<-done
	}

	p.logger.Debug("tool server terminated", "path", p.Path)
}
