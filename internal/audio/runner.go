package audio

import (
	"context"
	"os/exec"
)

// ExecRunner runs the tool as a child process and returns its combined output.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
