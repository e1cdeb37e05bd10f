// Package procexec runs build-script subprocesses in their own process
// group so context cancellation can reach every descendant, teeing their
// combined output to a log file.
//
// Grounded on the teacher's executor.go: Setpgid isolation, the
// context-cancellation-kills-the-group goroutine, and the SIGTERM-then-
// SIGKILL escalation is the SPEC_FULL §11.7 addition over the teacher's
// straight-to-SIGKILL behavior (a build script gets a chance to clean up
// before the hammer falls).
package procexec

import (
	"context"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/scratchkit/skw/internal/skwerr"
)

// Result carries the exit status of a finished command.
type Result struct {
	ExitCode int
}

// Run executes name/args with cwd and env, teeing stdout+stderr to logPath
// (truncated/created) as well as os.Stdout/os.Stderr. The child runs in its
// own process group; on ctx cancellation it is sent SIGTERM, then SIGKILL
// after grace if it hasn't exited.
func Run(ctx context.Context, name string, args []string, cwd string, env []string, logPath string, grace time.Duration) (*Result, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	cmd := exec.Command(name, args...)
	cmd.Dir = cwd
	cmd.Env = env
	cmd.Stdout = io.MultiWriter(os.Stdout, logFile)
	cmd.Stderr = io.MultiWriter(os.Stderr, logFile)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, skwerr.Wrap(skwerr.ExternalToolFailed, err, "starting %s", name)
	}

	pgid := cmd.Process.Pid
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = syscall.Kill(-pgid, syscall.SIGTERM)
			select {
			case <-time.After(grace):
				_ = syscall.Kill(-pgid, syscall.SIGKILL)
			case <-done:
			}
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, skwerr.Wrap(skwerr.ExternalToolFailed, waitErr, "running %s", name)
		}
	}
	if ctx.Err() != nil {
		return &Result{ExitCode: exitCode}, skwerr.New(skwerr.ScriptFailed, "%s: aborted: %v", name, ctx.Err())
	}
	if exitCode != 0 {
		return &Result{ExitCode: exitCode}, skwerr.New(skwerr.ScriptFailed, "%s: exited with status %d", name, exitCode)
	}
	return &Result{ExitCode: exitCode}, nil
}

// RunShellScript is a convenience wrapper for running a build script through
// /bin/sh -e, the shape every Scripter-generated script is produced in.
func RunShellScript(ctx context.Context, scriptPath, cwd string, env []string, logPath string, grace time.Duration) (*Result, error) {
	return Run(ctx, "/bin/sh", []string{"-e", scriptPath}, cwd, env, logPath, grace)
}
