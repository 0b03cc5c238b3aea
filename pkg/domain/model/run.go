package model

import "time"

// TriggerType represents what started a pipeline run
type TriggerType string

const (
	TriggerRelease TriggerType = "release"
	TriggerManual  TriggerType = "manual"
)

// RunStatus represents the state of a pipeline run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// StepName identifies a pipeline step
type StepName string

const (
	StepCheckout StepName = "checkout"
	StepSetup    StepName = "setup"
	StepInstall  StepName = "install"
	StepBuild    StepName = "build"
	StepUpload   StepName = "upload"
)

// PipelineRun represents one execution of the publish pipeline for a
// single matrix tag. Runs for the same release share nothing but the
// staged source they were copied from.
type PipelineRun struct {
	ID         string        `json:"id"`                // Unique run identifier
	Project    string        `json:"project"`           // Project name from the pipeline definition
	Trigger    TriggerType   `json:"trigger"`           // What started the run
	Tag        string        `json:"tag"`               // Matrix tag for this run
	Release    *ReleaseInfo  `json:"release,omitempty"` // Release that triggered the run (nil for manual runs)
	Status     RunStatus     `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Steps      []*StepResult `json:"steps,omitempty"`
	Artifacts  []*Artifact   `json:"artifacts,omitempty"`
	Error      string        `json:"error,omitempty"` // Failure description, empty on success
}

// Duration returns the wall clock time of the run
func (r *PipelineRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the run ended in failure
func (r *PipelineRun) Failed() bool {
	return r.Status == RunStatusFailed
}

// Step returns the result of the named step, or nil if it did not run
func (r *PipelineRun) Step(name StepName) *StepResult {
	for _, s := range r.Steps {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// StepResult represents the outcome of a single pipeline step
type StepResult struct {
	Name       StepName  `json:"name"`
	Command    string    `json:"command,omitempty"` // Command line after tag expansion, empty for checkout
	ExitCode   int       `json:"exit_code"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	LogPath    string    `json:"log_path,omitempty"` // Path to the captured output, empty if nothing was captured
	Error      string    `json:"error,omitempty"`    // Failure description, empty on success
}

// Succeeded reports whether the step completed with exit code 0
func (s *StepResult) Succeeded() bool {
	return s.Error == "" && s.ExitCode == 0
}

// Duration returns the wall clock time of the step
func (s *StepResult) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Artifact represents a build output collected from a run workspace
type Artifact struct {
	Name   string `json:"name"`   // Base name of the file
	Path   string `json:"path"`   // Path relative to the run workspace
	Size   int64  `json:"size"`   // Size in bytes
	SHA256 string `json:"sha256"` // Hex encoded SHA-256 digest
}

// PublishSummary aggregates the runs executed for one trigger
type PublishSummary struct {
	Project    string
	Trigger    TriggerType
	Release    *ReleaseInfo // nil for manual runs
	Runs       []*PipelineRun
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded reports whether every run in the summary succeeded
func (s *PublishSummary) Succeeded() bool {
	for _, r := range s.Runs {
		if r.Status != RunStatusSucceeded {
			return false
		}
	}
	return true
}

// FailedRuns returns the runs that ended in failure
func (s *PublishSummary) FailedRuns() []*PipelineRun {
	var failed []*PipelineRun
	for _, r := range s.Runs {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Duration returns the wall clock time of the whole matrix
func (s *PublishSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
