// Package sandbox runs commands inside an isolated container and copies
// files back out. It is the only layer that touches a container runtime;
// everything above it works in terms of command strings and results.
package sandbox

import "context"

// ExecResult contains the outcome of one command execution inside the
// sandbox: stdout, stderr, and the process exit code. Output is never
// truncated here; truncation is the caller's concern.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes commands in a sandbox and exports files from it.
// Implementations are synchronous; each call blocks until the underlying
// process finishes or ctx is done.
type Runner interface {
	// Exec runs a shell command inside the sandbox identified by id.
	// A non-zero exit code is reported in the result, not as an error;
	// the returned error covers only failures to run the command at all.
	Exec(ctx context.Context, id, command string) (*ExecResult, error)

	// CopyOut copies a file from the sandbox to the host and returns the
	// host path. Stderr from the copy is returned so callers can surface
	// it; a missing destination file is for the caller to detect.
	CopyOut(ctx context.Context, id, path string) (localPath, stderr string, err error)
}
