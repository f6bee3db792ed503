// Package exec runs shell commands for the workspace toolset.
package exec

import (
	"context"
)

// CommandRunner runs commands inside a working directory.
type CommandRunner interface {
	// Run executes name with args and returns combined stdout/stderr.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunShell executes command through "bash -c".
	RunShell(ctx context.Context, workDir string, command string) (output []byte, err error)
}
