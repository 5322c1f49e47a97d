package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// pipeWaitDelay bounds how long Wait keeps reading stdout/stderr after the
// command's context is cancelled. The kill signal only reaches the direct
// child; descendants inheriting the pipes would otherwise hold Run open.
const pipeWaitDelay = time.Second

// DockerRunner executes sandbox commands through the docker CLI: `docker
// exec` for commands and `docker cp` for file export. The sandbox id is the
// container id or name.
type DockerRunner struct {
	// Binary is the docker binary to invoke. Defaults to "docker".
	Binary string

	// ExecTimeout bounds a single command execution. Zero means no bound
	// beyond ctx.
	ExecTimeout time.Duration
}

// NewDockerRunner creates a runner using the docker CLI on PATH.
func NewDockerRunner() *DockerRunner {
	return &DockerRunner{Binary: "docker"}
}

func (d *DockerRunner) binary() string {
	if d.Binary == "" {
		return "docker"
	}
	return d.Binary
}

// Exec runs `docker exec <id> sh -c <command>` and captures its output.
func (d *DockerRunner) Exec(ctx context.Context, id, command string) (*ExecResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("sandbox id is required")
	}

	if d.ExecTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ExecTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, d.binary(), "exec", id, "sh", "-c", command)
	// Without a WaitDelay, Run blocks on the pipe-copy goroutines until every
	// descendant holding the pipes exits, so a wedged stream would keep the
	// call alive past the deadline.
	cmd.WaitDelay = pipeWaitDelay

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("docker exec: %w", err)
		}
	}
	return result, nil
}

// CopyOut runs `docker cp <id>:<path> <path>`, mirroring the sandbox path on
// the host. The host parent directory is created first; docker cp does not.
func (d *DockerRunner) CopyOut(ctx context.Context, id, path string) (string, string, error) {
	if strings.TrimSpace(id) == "" {
		return "", "", fmt.Errorf("sandbox id is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", fmt.Errorf("create host dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.binary(), "cp", id+":"+path, path)
	cmd.WaitDelay = pipeWaitDelay

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return "", stderr.String(), fmt.Errorf("docker cp: %w", err)
		}
		// Non-zero exit: surface stderr, let the caller check for the file.
	}
	return path, stderr.String(), nil
}
