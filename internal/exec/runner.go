package exec

import (
	"context"
	"os/exec"
)

// OSRunner implements CommandRunner with os/exec.
type OSRunner struct {
	// Shell defaults to bash.
	Shell string
}

// NewRunner returns an OSRunner using bash.
func NewRunner() *OSRunner {
	return &OSRunner{Shell: "bash"}
}

// Run executes a command and returns combined stdout/stderr output.
func (r *OSRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.CombinedOutput()
}

// RunShell executes command through "<shell> -c".
func (r *OSRunner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	shell := r.Shell
	if shell == "" {
		shell = "bash"
	}
	return r.Run(ctx, workDir, shell, "-c", command)
}

var _ CommandRunner = (*OSRunner)(nil)
