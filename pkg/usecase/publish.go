package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/runner"
	"github.com/m-mizutani/drover/pkg/infra/workspace"
	"github.com/m-mizutani/drover/pkg/pipeline"
	"github.com/m-mizutani/drover/pkg/scan"
	"github.com/m-mizutani/goerr/v2"
)

// PublishConfig carries the settings shared by every pipeline run
type PublishConfig struct {
	DefinitionFile string                    // Pipeline definition path relative to the source root
	WorkRoot       string                    // Parent directory for run workspaces, empty for the system temp dir
	LogDir         string                    // Parent directory for step logs, empty disables log capture
	Credentials    model.RegistryCredentials // Injected into upload steps
	EchoOutput     bool                      // Also stream step output to this process's stdout
}

type publishUseCase struct {
	cfg          PublishConfig
	githubClient interfaces.GitHubClient
	runner       interfaces.CommandRunner
	store        interfaces.RunStore
	notifier     interfaces.Notifier
}

// PublishOption configures a publish use case
type PublishOption func(*publishUseCase)

// WithGitHubClient sets the client used to download release sources
func WithGitHubClient(client interfaces.GitHubClient) PublishOption {
	return func(uc *publishUseCase) {
		uc.githubClient = client
	}
}

// WithCommandRunner replaces the process runner used for step commands
func WithCommandRunner(r interfaces.CommandRunner) PublishOption {
	return func(uc *publishUseCase) {
		uc.runner = r
	}
}

// WithRunStore sets the store runs are recorded to
func WithRunStore(store interfaces.RunStore) PublishOption {
	return func(uc *publishUseCase) {
		uc.store = store
	}
}

// WithNotifier sets the notifier informed when a publish finishes
func WithNotifier(n interfaces.Notifier) PublishOption {
	return func(uc *publishUseCase) {
		uc.notifier = n
	}
}

// NewPublish creates a new instance of PublishUseCase
func NewPublish(cfg PublishConfig, opts ...PublishOption) interfaces.PublishUseCase {
	if cfg.DefinitionFile == "" {
		cfg.DefinitionFile = pipeline.DefaultFileName
	}

	uc := &publishUseCase{
		cfg:    cfg,
		runner: runner.New(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// PublishRelease downloads the source of the release and runs the
// pipeline matrix against it
func (uc *publishUseCase) PublishRelease(ctx context.Context, info *model.ReleaseInfo) (*model.PublishSummary, error) {
	logger := ctxlog.From(ctx)

	if uc.githubClient == nil {
		return nil, goerr.New("no GitHub client configured")
	}

	logger.Info("Publishing release",
		"owner", info.Owner,
		"repo", info.Repo,
		"tag_name", info.TagName,
		"commit_sha", info.CommitSHA,
	)

	zipData, err := uc.githubClient.DownloadZipball(ctx, info.Owner, info.Repo, info.Ref())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download zipball", goerr.V("release", info.Slug()))
	}

	logger.Info("Downloaded zipball", "size_bytes", len(zipData), "release", info.Slug())

	tree, err := workspace.ExtractZip(ctx, zipData)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract zipball", goerr.V("release", info.Slug()))
	}
	defer workspace.Cleanup(ctx, tree.Dir)

	srcDir, err := workspace.SourceRoot(tree)
	if err != nil {
		return nil, err
	}

	def, err := pipeline.Load(filepath.Join(srcDir, uc.cfg.DefinitionFile))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load pipeline definition", goerr.V("release", info.Slug()))
	}

	summary := uc.runMatrix(ctx, def, srcDir, def.Matrix.Tags, model.TriggerRelease, info)
	uc.notify(ctx, summary)
	return summary, nil
}

// PublishSource runs the pipeline matrix against a local source
// directory. When tags is empty the matrix from the definition is used.
func (uc *publishUseCase) PublishSource(ctx context.Context, srcDir string, tags []string) (*model.PublishSummary, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read source directory", goerr.V("dir", srcDir))
	}
	if !info.IsDir() {
		return nil, goerr.New("source path is not a directory", goerr.V("path", srcDir))
	}

	def, err := pipeline.Load(filepath.Join(srcDir, uc.cfg.DefinitionFile))
	if err != nil {
		return nil, err
	}

	if len(tags) == 0 {
		tags = def.Matrix.Tags
	} else {
		for _, tag := range tags {
			if tag == "" {
				return nil, goerr.New("tag must not be empty")
			}
		}
	}

	summary := uc.runMatrix(ctx, def, srcDir, tags, model.TriggerManual, nil)
	uc.notify(ctx, summary)
	return summary, nil
}

// runMatrix executes one pipeline run per tag in parallel. Duplicate
// tags fan out into separate runs, and a failing run never stops its
// siblings.
func (uc *publishUseCase) runMatrix(ctx context.Context, def *pipeline.Definition, srcDir string, tags []string, trigger model.TriggerType, release *model.ReleaseInfo) *model.PublishSummary {
	logger := ctxlog.From(ctx)
	logger.Info("Starting pipeline matrix",
		"project", def.Project.Name,
		"trigger", trigger,
		"tags", tags,
	)

	startedAt := time.Now()
	runs := make([]*model.PipelineRun, len(tags))

	var wg sync.WaitGroup
	for i, tag := range tags {
		wg.Add(1)
		go func(i int, tag string) {
			defer wg.Done()
			runs[i] = uc.runPipeline(ctx, def, srcDir, tag, trigger, release)
		}(i, tag)
	}
	wg.Wait()

	summary := &model.PublishSummary{
		Project:    def.Project.Name,
		Trigger:    trigger,
		Release:    release,
		Runs:       runs,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}

	if failed := summary.FailedRuns(); len(failed) > 0 {
		logger.Error("Pipeline matrix finished with failures",
			"project", def.Project.Name,
			"failed", len(failed),
			"total", len(runs),
		)
	} else {
		logger.Info("Pipeline matrix finished",
			"project", def.Project.Name,
			"runs", len(runs),
			"duration", summary.Duration(),
		)
	}

	return summary
}

// runPipeline executes the full step sequence for one matrix tag. The
// returned run is always in a final state; failures are recorded on
// the run instead of returned, so sibling runs are unaffected.
func (uc *publishUseCase) runPipeline(ctx context.Context, def *pipeline.Definition, srcDir, tag string, trigger model.TriggerType, release *model.ReleaseInfo) *model.PipelineRun {
	run := &model.PipelineRun{
		ID:        uuid.NewString(),
		Project:   def.Project.Name,
		Trigger:   trigger,
		Tag:       tag,
		Release:   release,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now(),
	}

	ctx = ctxlog.With(ctx, ctxlog.From(ctx).With("run_id", run.ID, "tag", tag))
	logger := ctxlog.From(ctx)
	logger.Info("Starting pipeline run", "project", run.Project)

	if uc.store != nil {
		if err := uc.store.StartRun(ctx, run); err != nil {
			logger.Warn("Failed to record run start", "error", err)
		}
	}

	checkout := &model.StepResult{Name: model.StepCheckout, StartedAt: time.Now()}
	workDir, err := workspace.Stage(srcDir, uc.cfg.WorkRoot)
	checkout.FinishedAt = time.Now()
	if err != nil {
		checkout.Error = err.Error()
	}
	run.Steps = append(run.Steps, checkout)
	if err != nil {
		return uc.failRun(ctx, run, goerr.Wrap(err, "failed to stage workspace"))
	}
	defer workspace.Cleanup(ctx, workDir)

	logger.Debug("Staged run workspace", "work_dir", workDir)

	env := map[string]string{
		"DROVER_TAG":     tag,
		"DROVER_RUN_ID":  run.ID,
		"DROVER_PROJECT": def.Project.Name,
	}

	if def.Steps.Setup != "" {
		step := uc.runStep(ctx, run, model.StepSetup, def.Steps.Setup, workDir, env)
		run.Steps = append(run.Steps, step)
		if !step.Succeeded() {
			return uc.failRun(ctx, run, stepError(step))
		}
	}

	if def.Steps.Install != "" {
		step := uc.runStep(ctx, run, model.StepInstall, def.Steps.Install, workDir, env)
		run.Steps = append(run.Steps, step)
		if !step.Succeeded() {
			return uc.failRun(ctx, run, stepError(step))
		}
	}

	build := uc.runStep(ctx, run, model.StepBuild, def.Steps.Build, workDir, env)
	run.Steps = append(run.Steps, build)
	if !build.Succeeded() {
		return uc.failRun(ctx, run, stepError(build))
	}

	artifacts, err := collectArtifacts(workDir, def.Artifacts.Pattern)
	if err != nil {
		return uc.failRun(ctx, run, err)
	}
	run.Artifacts = artifacts
	logger.Info("Collected artifacts", "count", len(artifacts))

	upload := uc.runUpload(ctx, run, def, workDir, env, artifacts)
	run.Steps = append(run.Steps, upload)
	if !upload.Succeeded() {
		return uc.failRun(ctx, run, stepError(upload))
	}

	run.Status = model.RunStatusSucceeded
	run.FinishedAt = time.Now()
	uc.finishRun(ctx, run)

	logger.Info("Pipeline run succeeded", "duration", run.Duration())
	return run
}

// runStep executes one configured step command in the run workspace
func (uc *publishUseCase) runStep(ctx context.Context, run *model.PipelineRun, name model.StepName, command, workDir string, env map[string]string) *model.StepResult {
	step := &model.StepResult{Name: name, StartedAt: time.Now()}

	argv, err := pipeline.SplitCommand(command)
	if err != nil {
		step.Error = err.Error()
		step.FinishedAt = time.Now()
		return step
	}

	uc.execStep(ctx, run, step, pipeline.ExpandTag(argv, run.Tag), workDir, env)
	return step
}

// runUpload executes the upload step. Credentials are checked before
// anything runs: without both values the step fails and the upload
// tool is never invoked.
func (uc *publishUseCase) runUpload(ctx context.Context, run *model.PipelineRun, def *pipeline.Definition, workDir string, env map[string]string, artifacts []*model.Artifact) *model.StepResult {
	step := &model.StepResult{Name: model.StepUpload, StartedAt: time.Now()}

	if !uc.cfg.Credentials.Configured() {
		step.Error = "registry credentials are not configured"
		step.FinishedAt = time.Now()
		return step
	}

	argv, err := pipeline.SplitCommand(def.Steps.Upload)
	if err != nil {
		step.Error = err.Error()
		step.FinishedAt = time.Now()
		return step
	}
	argv = pipeline.ExpandTag(argv, run.Tag)
	for _, artifact := range artifacts {
		argv = append(argv, artifact.Path)
	}

	uploadEnv := make(map[string]string, len(env)+2)
	for k, v := range env {
		uploadEnv[k] = v
	}
	uploadEnv[def.Registry.UsernameEnv] = uc.cfg.Credentials.Username
	uploadEnv[def.Registry.PasswordEnv] = uc.cfg.Credentials.Password

	uc.execStep(ctx, run, step, argv, workDir, uploadEnv)
	return step
}

// execStep runs an argv in the workspace, capturing output to the step log
func (uc *publishUseCase) execStep(ctx context.Context, run *model.PipelineRun, step *model.StepResult, argv []string, workDir string, env map[string]string) {
	logger := ctxlog.From(ctx)
	step.Command = shellquote.Join(argv...)

	out, logPath, err := uc.openStepLog(run.ID, step.Name)
	if err != nil {
		logger.Warn("Failed to open step log, output will not be kept", "step", step.Name, "error", err)
	} else if out != nil {
		defer out.Close()
		step.LogPath = logPath
	}

	var w io.Writer = io.Discard
	switch {
	case out != nil && uc.cfg.EchoOutput:
		w = io.MultiWriter(out, os.Stdout)
	case out != nil:
		w = out
	case uc.cfg.EchoOutput:
		w = os.Stdout
	}

	logger.Info("Running step", "step", step.Name, "command", step.Command)

	result, err := uc.runner.Run(ctx, &model.Command{
		Argv:   argv,
		Dir:    workDir,
		Env:    env,
		Stdout: w,
		Stderr: w,
	})
	step.FinishedAt = time.Now()

	if err != nil {
		step.Error = err.Error()
		return
	}
	step.ExitCode = result.ExitCode
}

// openStepLog creates the log file for a step under the configured log
// directory. A nil file without error means log capture is disabled.
func (uc *publishUseCase) openStepLog(runID string, name model.StepName) (*os.File, string, error) {
	if uc.cfg.LogDir == "" {
		return nil, "", nil
	}

	dir := filepath.Join(uc.cfg.LogDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", err
	}

	path := filepath.Join(dir, string(name)+".log")
	f, err := os.Create(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

// collectArtifacts globs the artifact pattern in the workspace and
// digests every regular file it matches. A build that leaves nothing
// behind fails the run.
func collectArtifacts(workDir, pattern string) ([]*model.Artifact, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, pattern))
	if err != nil {
		return nil, goerr.Wrap(err, "invalid artifact pattern", goerr.V("pattern", pattern))
	}

	var artifacts []*model.Artifact
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to stat artifact", goerr.V("path", match))
		}
		if !info.Mode().IsRegular() {
			continue
		}

		digest, err := hashFile(match)
		if err != nil {
			return nil, err
		}

		rel, err := filepath.Rel(workDir, match)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve artifact path", goerr.V("path", match))
		}

		artifacts = append(artifacts, &model.Artifact{
			Name:   filepath.Base(match),
			Path:   rel,
			Size:   info.Size(),
			SHA256: digest,
		})
	}

	if len(artifacts) == 0 {
		return nil, goerr.New("build produced no artifacts", goerr.V("pattern", pattern))
	}
	return artifacts, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open artifact", goerr.V("path", path))
	}
	defer f.Close()

	digest, err := scan.HashStream(f, "sha256")
	if err != nil {
		return "", goerr.Wrap(err, "failed to hash artifact", goerr.V("path", path))
	}
	return digest, nil
}

// failRun marks the run failed and records the final state
func (uc *publishUseCase) failRun(ctx context.Context, run *model.PipelineRun, err error) *model.PipelineRun {
	run.Status = model.RunStatusFailed
	run.Error = err.Error()
	run.FinishedAt = time.Now()
	uc.finishRun(ctx, run)

	ctxlog.From(ctx).Error("Pipeline run failed", "error", err, "duration", run.Duration())
	return run
}

func (uc *publishUseCase) finishRun(ctx context.Context, run *model.PipelineRun) {
	if uc.store == nil {
		return
	}
	if err := uc.store.FinishRun(ctx, run); err != nil {
		ctxlog.From(ctx).Warn("Failed to record run result", "run_id", run.ID, "error", err)
	}
}

func (uc *publishUseCase) notify(ctx context.Context, summary *model.PublishSummary) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.NotifyPublish(ctx, summary); err != nil {
		ctxlog.From(ctx).Warn("Failed to send publish notification", "error", err)
	}
}

func stepError(step *model.StepResult) error {
	if step.Error != "" {
		return fmt.Errorf("step %s failed: %s", step.Name, step.Error)
	}
	return fmt.Errorf("step %s exited with code %d", step.Name, step.ExitCode)
}
