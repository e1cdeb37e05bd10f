package procexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scratchkit/skw/internal/skwerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(dir, "build.log")

	res, err := Run(context.Background(), "/bin/sh", []string{"-c", "echo hello"}, dir, os.Environ(), log, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	content, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello")
}

func TestRun_NonZeroExitIsScriptFailed(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(dir, "build.log")

	_, err := Run(context.Background(), "/bin/sh", []string{"-c", "exit 3"}, dir, os.Environ(), log, time.Second)
	require.Error(t, err)
	assert.True(t, skwerr.Is(err, skwerr.ScriptFailed))
}

func TestRun_ContextCancelKillsProcessGroup(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(dir, "build.log")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, "/bin/sh", []string{"-c", "sleep 30"}, dir, os.Environ(), log, 50*time.Millisecond)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, skwerr.Is(err, skwerr.ScriptFailed))
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestRunShellScript_ExecutesFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "build.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho from-script\n"), 0o755))
	log := filepath.Join(dir, "build.log")

	res, err := RunShellScript(context.Background(), script, dir, os.Environ(), log, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	content, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Contains(t, string(content), "from-script")
}
