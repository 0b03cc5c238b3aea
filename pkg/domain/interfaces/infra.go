package interfaces

import (
	"context"
	"errors"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// ErrRunNotFound is returned by RunStore.GetRun when no run has the
// given ID
var ErrRunNotFound = errors.New("run not found")

// CommandRunner executes a single pipeline step process. A non-zero
// exit code is reported via CommandResult, not as an error; errors are
// reserved for processes that could not be started.
type CommandRunner interface {
	Run(ctx context.Context, cmd *model.Command) (*model.CommandResult, error)
}

// RunStore records pipeline runs and serves them back for status
// reporting. The pipeline only writes: recorded runs never influence
// how later runs execute.
type RunStore interface {
	// StartRun records a run in running state
	StartRun(ctx context.Context, run *model.PipelineRun) error

	// FinishRun records the final state of a run with its steps and artifacts
	FinishRun(ctx context.Context, run *model.PipelineRun) error

	// ListRuns returns the most recent runs, newest first
	ListRuns(ctx context.Context, limit int) ([]*model.PipelineRun, error)

	// GetRun returns a single run with its steps and artifacts
	GetRun(ctx context.Context, id string) (*model.PipelineRun, error)
}

// Notifier sends a notification about a finished publish matrix
type Notifier interface {
	NotifyPublish(ctx context.Context, summary *model.PublishSummary) error
}
