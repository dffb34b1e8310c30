package builder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Runner spawns an invocation and blocks until it exits
type Runner interface {
	// Run returns the exit code and the combined stdout/stderr. A non-nil error
	// means the process could not be started or waited for; a nonzero exit code
	// alone is not an error.
	Run(ctx context.Context, inv Invocation) (exitCode int, output []byte, err error)
}

// ExecRunner runs invocations with os/exec
type ExecRunner struct {
	// Echo, if set, receives the output as it is produced in addition to the captured copy
	Echo io.Writer
	// Dir is the working directory of spawned processes
	Dir string
}

func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (int, []byte, error) {
	var buf bytes.Buffer
	var w io.Writer = &buf
	if r.Echo != nil {
		w = io.MultiWriter(&buf, r.Echo)
	}

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Dir = r.Dir
	cmd.Stdout = w
	cmd.Stderr = w

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return exitErr.ExitCode(), buf.Bytes(), nil
		}
		return -1, buf.Bytes(), err
	}
	return 0, buf.Bytes(), nil
}
