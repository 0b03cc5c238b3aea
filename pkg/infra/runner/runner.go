// Package runner executes pipeline step commands as OS processes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type runner struct{}

// New creates a CommandRunner that executes commands directly on the
// host. No shell is involved; Argv is handed to the OS as is.
func New() interfaces.CommandRunner {
	return &runner{}
}

// Run starts the command and waits for it to finish. A non-zero exit
// code is returned in the result, not as an error. The returned error
// means the process could not be started or was aborted by the
// context.
func (r *runner) Run(ctx context.Context, cmd *model.Command) (*model.CommandResult, error) {
	if len(cmd.Argv) == 0 {
		return nil, goerr.New("command argv is empty")
	}

	proc := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	proc.Dir = cmd.Dir
	proc.Env = mergeEnv(os.Environ(), cmd.Env)
	proc.Stdout = cmd.Stdout
	proc.Stderr = cmd.Stderr

	if err := proc.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, goerr.Wrap(ctxErr, "command aborted", goerr.V("argv0", cmd.Argv[0]))
			}
			return &model.CommandResult{ExitCode: exitErr.ExitCode()}, nil
		}
		return nil, goerr.Wrap(err, "failed to start command", goerr.V("argv0", cmd.Argv[0]))
	}

	return &model.CommandResult{ExitCode: 0}, nil
}

// mergeEnv appends the extra variables to the base environment. Later
// entries win on duplicate names, which matches how the OS resolves
// them.
func mergeEnv(base []string, extra map[string]string) []string {
	env := make([]string, len(base), len(base)+len(extra))
	copy(env, base)
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
