package scad

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes the external compiler. It is an interface so tests can
// stand in for the real binary.
type Runner interface {
	// Run executes name with args and returns whatever the process wrote to
	// standard error, plus the process error if it exited non-zero.
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

// ExecRunner runs the compiler as a real subprocess. Cancellation of ctx
// kills the process.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return errBuf.String(), err
}
