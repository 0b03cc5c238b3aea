package usecase_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/usecase"
)

const testDefinition = `
[project]
name = "pipeek"

[matrix]
tags = ["py38", "py39"]

[steps]
build  = "build-tool --python-tag {tag}"
upload = "upload-tool --repository testpypi"

[artifacts]
pattern = "dist/*"

[registry]
username_env = "TWINE_USERNAME"
password_env = "TWINE_PASSWORD"
`

var validCreds = model.RegistryCredentials{Username: "publisher", Password: "s3cret"}

type recordedCommand struct {
	Argv []string
	Dir  string
	Env  map[string]string
}

// fakeRunner records every command and simulates the external tools.
// The default handler succeeds and makes build-tool leave a wheel in
// dist/ so artifact collection has something to find.
type fakeRunner struct {
	mu      sync.Mutex
	history []recordedCommand
	handler func(cmd *model.Command) (*model.CommandResult, error)
}

func newFakeRunner() *fakeRunner {
	r := &fakeRunner{}
	r.handler = r.defaultHandler
	return r
}

func (r *fakeRunner) Run(ctx context.Context, cmd *model.Command) (*model.CommandResult, error) {
	env := make(map[string]string, len(cmd.Env))
	for k, v := range cmd.Env {
		env[k] = v
	}

	r.mu.Lock()
	r.history = append(r.history, recordedCommand{
		Argv: append([]string(nil), cmd.Argv...),
		Dir:  cmd.Dir,
		Env:  env,
	})
	r.mu.Unlock()

	return r.handler(cmd)
}

func (r *fakeRunner) defaultHandler(cmd *model.Command) (*model.CommandResult, error) {
	fmt.Fprintf(cmd.Stdout, "%s ok\n", cmd.Argv[0])
	if cmd.Argv[0] == "build-tool" {
		if err := writeWheel(cmd); err != nil {
			return nil, err
		}
	}
	return &model.CommandResult{ExitCode: 0}, nil
}

// byRun returns the commands recorded for a single run, oldest first,
// optionally filtered by tool name
func (r *fakeRunner) byRun(runID, tool string) []recordedCommand {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []recordedCommand
	for _, c := range r.history {
		if c.Env["DROVER_RUN_ID"] != runID {
			continue
		}
		if tool != "" && c.Argv[0] != tool {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *fakeRunner) count(tool string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.history {
		if c.Argv[0] == tool {
			n++
		}
	}
	return n
}

func writeWheel(cmd *model.Command) error {
	dir := filepath.Join(cmd.Dir, "dist")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name := "pkg-" + cmd.Env["DROVER_TAG"] + ".whl"
	return os.WriteFile(filepath.Join(dir, name), []byte("wheel-data\n"), 0644)
}

type fakeGitHubClient struct {
	mu    sync.Mutex
	calls []string
	data  []byte
	err   error
}

func (c *fakeGitHubClient) DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	c.mu.Lock()
	c.calls = append(c.calls, fmt.Sprintf("%s/%s@%s", owner, repo, ref))
	c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	return c.data, nil
}

type fakeRunStore struct {
	mu       sync.Mutex
	failAll  bool
	started  []model.PipelineRun
	finished []model.PipelineRun
}

func (s *fakeRunStore) StartRun(ctx context.Context, run *model.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store unavailable")
	}
	s.started = append(s.started, *run)
	return nil
}

func (s *fakeRunStore) FinishRun(ctx context.Context, run *model.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store unavailable")
	}
	s.finished = append(s.finished, *run)
	return nil
}

func (s *fakeRunStore) ListRuns(ctx context.Context, limit int) ([]*model.PipelineRun, error) {
	return nil, nil
}

func (s *fakeRunStore) GetRun(ctx context.Context, id string) (*model.PipelineRun, error) {
	return nil, errors.New("not implemented")
}

type fakeNotifier struct {
	mu        sync.Mutex
	err       error
	summaries []*model.PublishSummary
}

func (n *fakeNotifier) NotifyPublish(ctx context.Context, summary *model.PublishSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
	return n.err
}

func writeSource(t *testing.T, definition string) string {
	t.Helper()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "drover.toml"), []byte(definition), 0644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "setup.py"), []byte("# build script\n"), 0644))
	return dir
}

func newTestPublish(t *testing.T, r *fakeRunner, creds model.RegistryCredentials, opts ...usecase.PublishOption) interfaces.PublishUseCase {
	t.Helper()
	cfg := usecase.PublishConfig{
		WorkRoot:    t.TempDir(),
		LogDir:      t.TempDir(),
		Credentials: creds,
	}
	opts = append([]usecase.PublishOption{usecase.WithCommandRunner(r)}, opts...)
	return usecase.NewPublish(cfg, opts...)
}

func createZipball(t *testing.T, root string, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(root + "/" + name)
		gt.NoError(t, err)
		_, err = w.Write([]byte(content))
		gt.NoError(t, err)
	}
	gt.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPublishSource_BuildReceivesTag(t *testing.T) {
	t.Run("each run gets its own matrix value", func(t *testing.T) {
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, validCreds)

		summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
		gt.NoError(t, err)
		gt.True(t, summary.Succeeded())
		gt.Number(t, len(summary.Runs)).Equal(2)
		gt.Value(t, summary.Runs[0].Tag).Equal("py38")
		gt.Value(t, summary.Runs[1].Tag).Equal("py39")

		for _, run := range summary.Runs {
			checkout := run.Step(model.StepCheckout)
			gt.Value(t, checkout).NotNil()
			gt.True(t, checkout.Succeeded())

			builds := runner.byRun(run.ID, "build-tool")
			gt.Number(t, len(builds)).Equal(1)
			gt.Value(t, builds[0].Argv).Equal([]string{"build-tool", "--python-tag", run.Tag})
			gt.Value(t, builds[0].Env["DROVER_TAG"]).Equal(run.Tag)
			gt.Value(t, builds[0].Env["DROVER_PROJECT"]).Equal("pipeek")
		}
	})

	t.Run("tag with spaces stays one argument", func(t *testing.T) {
		def := strings.Replace(testDefinition, `tags = ["py38", "py39"]`, `tags = ["py 38 beta"]`, 1)
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, validCreds)

		summary, err := uc.PublishSource(context.Background(), writeSource(t, def), nil)
		gt.NoError(t, err)
		gt.True(t, summary.Succeeded())
		gt.Number(t, len(summary.Runs)).Equal(1)

		builds := runner.byRun(summary.Runs[0].ID, "build-tool")
		gt.Number(t, len(builds)).Equal(1)
		gt.Value(t, builds[0].Argv).Equal([]string{"build-tool", "--python-tag", "py 38 beta"})
	})
}

func TestPublishSource_UploadOncePerRun(t *testing.T) {
	runner := newFakeRunner()
	uc := newTestPublish(t, runner, validCreds)
	src := writeSource(t, testDefinition)

	summary, err := uc.PublishSource(context.Background(), src, nil)
	gt.NoError(t, err)
	gt.True(t, summary.Succeeded())

	gt.Number(t, runner.count("upload-tool")).Equal(2)

	for _, run := range summary.Runs {
		uploads := runner.byRun(run.ID, "upload-tool")
		gt.Number(t, len(uploads)).Equal(1)

		wheel := filepath.Join("dist", "pkg-"+run.Tag+".whl")
		gt.Value(t, uploads[0].Argv).Equal([]string{"upload-tool", "--repository", "testpypi", wheel})
		gt.Value(t, uploads[0].Env["TWINE_USERNAME"]).Equal("publisher")
		gt.Value(t, uploads[0].Env["TWINE_PASSWORD"]).Equal("s3cret")
		gt.Value(t, uploads[0].Env["DROVER_RUN_ID"]).Equal(run.ID)

		// Build first, upload second, nothing else
		cmds := runner.byRun(run.ID, "")
		gt.Number(t, len(cmds)).Equal(2)
		gt.Value(t, cmds[0].Argv[0]).Equal("build-tool")
		gt.Value(t, cmds[1].Argv[0]).Equal("upload-tool")

		// Credentials are injected into the upload step only
		gt.Value(t, cmds[0].Env["TWINE_USERNAME"]).Equal("")

		gt.Number(t, len(run.Artifacts)).Equal(1)
		gt.Value(t, run.Artifacts[0].Name).Equal("pkg-" + run.Tag + ".whl")
		gt.Value(t, run.Artifacts[0].Path).Equal(wheel)
		gt.Value(t, run.Artifacts[0].Size).Equal(int64(len("wheel-data\n")))
		gt.Number(t, len(run.Artifacts[0].SHA256)).Equal(64)
	}

	// The source directory itself is never built in
	_, err = os.Stat(filepath.Join(src, "dist"))
	gt.Error(t, err)
}

func TestPublishSource_MissingCredentials(t *testing.T) {
	for _, creds := range []model.RegistryCredentials{
		{},
		{Username: "publisher"},
		{Password: "s3cret"},
	} {
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, creds)

		summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
		gt.NoError(t, err)
		gt.True(t, !summary.Succeeded())
		gt.Number(t, len(summary.FailedRuns())).Equal(2)

		for _, run := range summary.Runs {
			gt.True(t, run.Failed())
			gt.String(t, run.Error).Contains("credentials are not configured")

			upload := run.Step(model.StepUpload)
			gt.Value(t, upload).NotNil()
			gt.String(t, upload.Error).Contains("credentials are not configured")

			// The build still ran; the upload tool was never invoked
			gt.Number(t, len(runner.byRun(run.ID, "build-tool"))).Equal(1)
			gt.Number(t, len(runner.byRun(run.ID, "upload-tool"))).Equal(0)
		}

		gt.Number(t, runner.count("upload-tool")).Equal(0)
	}
}

func TestPublishSource_RejectedCredentials(t *testing.T) {
	runner := newFakeRunner()
	runner.handler = func(cmd *model.Command) (*model.CommandResult, error) {
		if cmd.Argv[0] == "upload-tool" {
			return &model.CommandResult{ExitCode: 1}, nil
		}
		return runner.defaultHandler(cmd)
	}
	uc := newTestPublish(t, runner, validCreds)

	summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
	gt.NoError(t, err)
	gt.True(t, !summary.Succeeded())

	for _, run := range summary.Runs {
		gt.True(t, run.Failed())
		gt.String(t, run.Error).Contains("upload")

		upload := run.Step(model.StepUpload)
		gt.Value(t, upload).NotNil()
		gt.Number(t, upload.ExitCode).Equal(1)

		// Rejected uploads are not retried
		gt.Number(t, len(runner.byRun(run.ID, "upload-tool"))).Equal(1)
	}
}

func TestPublishSource_DuplicateTags(t *testing.T) {
	def := strings.Replace(testDefinition, `tags = ["py38", "py39"]`, `tags = ["py38", "py38"]`, 1)
	runner := newFakeRunner()
	uc := newTestPublish(t, runner, validCreds)

	summary, err := uc.PublishSource(context.Background(), writeSource(t, def), nil)
	gt.NoError(t, err)
	gt.True(t, summary.Succeeded())
	gt.Number(t, len(summary.Runs)).Equal(2)

	first, second := summary.Runs[0], summary.Runs[1]
	gt.Value(t, first.Tag).Equal("py38")
	gt.Value(t, second.Tag).Equal("py38")
	gt.True(t, first.ID != second.ID)

	// Same tag, but fully separate workspaces and uploads
	firstBuilds := runner.byRun(first.ID, "build-tool")
	secondBuilds := runner.byRun(second.ID, "build-tool")
	gt.Number(t, len(firstBuilds)).Equal(1)
	gt.Number(t, len(secondBuilds)).Equal(1)
	gt.True(t, firstBuilds[0].Dir != secondBuilds[0].Dir)

	gt.Number(t, len(runner.byRun(first.ID, "upload-tool"))).Equal(1)
	gt.Number(t, len(runner.byRun(second.ID, "upload-tool"))).Equal(1)
}

func TestPublishSource_SiblingFailureIsolation(t *testing.T) {
	runner := newFakeRunner()
	runner.handler = func(cmd *model.Command) (*model.CommandResult, error) {
		if cmd.Argv[0] == "build-tool" && cmd.Env["DROVER_TAG"] == "py39" {
			return &model.CommandResult{ExitCode: 1}, nil
		}
		return runner.defaultHandler(cmd)
	}
	uc := newTestPublish(t, runner, validCreds)

	summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
	gt.NoError(t, err)
	gt.True(t, !summary.Succeeded())
	gt.Number(t, len(summary.FailedRuns())).Equal(1)

	good, bad := summary.Runs[0], summary.Runs[1]
	gt.Value(t, good.Tag).Equal("py38")
	gt.Value(t, good.Status).Equal(model.RunStatusSucceeded)
	gt.Number(t, len(runner.byRun(good.ID, "upload-tool"))).Equal(1)

	gt.Value(t, bad.Tag).Equal("py39")
	gt.True(t, bad.Failed())
	gt.Number(t, bad.Step(model.StepBuild).ExitCode).Equal(1)
	gt.Value(t, bad.Step(model.StepUpload)).Nil()
	gt.Number(t, len(runner.byRun(bad.ID, "upload-tool"))).Equal(0)
}

func TestPublishSource_NoArtifacts(t *testing.T) {
	runner := newFakeRunner()
	runner.handler = func(cmd *model.Command) (*model.CommandResult, error) {
		return &model.CommandResult{ExitCode: 0}, nil
	}
	uc := newTestPublish(t, runner, validCreds)

	summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
	gt.NoError(t, err)
	gt.True(t, !summary.Succeeded())

	for _, run := range summary.Runs {
		gt.True(t, run.Failed())
		gt.String(t, run.Error).Contains("no artifacts")
	}
	gt.Number(t, runner.count("upload-tool")).Equal(0)
}

func TestPublishSource_OptionalSteps(t *testing.T) {
	fullDef := strings.Replace(testDefinition, "[steps]", `[steps]
setup   = "setup-tool"
install = "install-tool --quiet"`, 1)

	t.Run("configured steps run in order", func(t *testing.T) {
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, validCreds)

		summary, err := uc.PublishSource(context.Background(), writeSource(t, fullDef), nil)
		gt.NoError(t, err)
		gt.True(t, summary.Succeeded())

		for _, run := range summary.Runs {
			var names []model.StepName
			for _, s := range run.Steps {
				names = append(names, s.Name)
			}
			gt.Value(t, names).Equal([]model.StepName{
				model.StepCheckout, model.StepSetup, model.StepInstall, model.StepBuild, model.StepUpload,
			})

			gt.Number(t, len(runner.byRun(run.ID, "setup-tool"))).Equal(1)
			gt.Number(t, len(runner.byRun(run.ID, "install-tool"))).Equal(1)
		}
	})

	t.Run("omitted steps are skipped", func(t *testing.T) {
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, validCreds)

		summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
		gt.NoError(t, err)

		for _, run := range summary.Runs {
			var names []model.StepName
			for _, s := range run.Steps {
				names = append(names, s.Name)
			}
			gt.Value(t, names).Equal([]model.StepName{
				model.StepCheckout, model.StepBuild, model.StepUpload,
			})
		}
		gt.Number(t, runner.count("setup-tool")).Equal(0)
		gt.Number(t, runner.count("install-tool")).Equal(0)
	})

	t.Run("failing install stops the run before build", func(t *testing.T) {
		runner := newFakeRunner()
		runner.handler = func(cmd *model.Command) (*model.CommandResult, error) {
			if cmd.Argv[0] == "install-tool" {
				return &model.CommandResult{ExitCode: 2}, nil
			}
			return runner.defaultHandler(cmd)
		}
		uc := newTestPublish(t, runner, validCreds)

		summary, err := uc.PublishSource(context.Background(), writeSource(t, fullDef), nil)
		gt.NoError(t, err)
		gt.True(t, !summary.Succeeded())

		for _, run := range summary.Runs {
			gt.True(t, run.Failed())
			gt.Number(t, run.Step(model.StepInstall).ExitCode).Equal(2)
			gt.Value(t, run.Step(model.StepBuild)).Nil()
		}
		gt.Number(t, runner.count("build-tool")).Equal(0)
		gt.Number(t, runner.count("upload-tool")).Equal(0)
	})
}

func TestPublishSource_TagOverride(t *testing.T) {
	t.Run("explicit tags replace the matrix", func(t *testing.T) {
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, validCreds)

		summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), []string{"py310"})
		gt.NoError(t, err)
		gt.True(t, summary.Succeeded())
		gt.Number(t, len(summary.Runs)).Equal(1)
		gt.Value(t, summary.Runs[0].Tag).Equal("py310")

		builds := runner.byRun(summary.Runs[0].ID, "build-tool")
		gt.Number(t, len(builds)).Equal(1)
		gt.Value(t, builds[0].Argv).Equal([]string{"build-tool", "--python-tag", "py310"})
	})

	t.Run("empty tag value is rejected", func(t *testing.T) {
		uc := newTestPublish(t, newFakeRunner(), validCreds)

		_, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), []string{"py310", ""})
		gt.Error(t, err)
	})
}

func TestPublishSource_SourceErrors(t *testing.T) {
	uc := newTestPublish(t, newFakeRunner(), validCreds)
	ctx := context.Background()

	t.Run("missing directory", func(t *testing.T) {
		_, err := uc.PublishSource(ctx, filepath.Join(t.TempDir(), "nope"), nil)
		gt.Error(t, err)
	})

	t.Run("path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		gt.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		_, err := uc.PublishSource(ctx, path, nil)
		gt.Error(t, err)
	})

	t.Run("no pipeline definition", func(t *testing.T) {
		_, err := uc.PublishSource(ctx, t.TempDir(), nil)
		gt.Error(t, err)
	})
}

func TestPublishSource_StepLogs(t *testing.T) {
	runner := newFakeRunner()
	uc := newTestPublish(t, runner, validCreds)

	summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
	gt.NoError(t, err)

	for _, run := range summary.Runs {
		build := run.Step(model.StepBuild)
		gt.True(t, build.LogPath != "")

		content, err := os.ReadFile(build.LogPath)
		gt.NoError(t, err)
		gt.String(t, string(content)).Contains("build-tool ok")
	}
}

func TestPublishSource_RecordsRuns(t *testing.T) {
	t.Run("runs are recorded and the notifier is told", func(t *testing.T) {
		store := &fakeRunStore{}
		notifier := &fakeNotifier{}
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, validCreds,
			usecase.WithRunStore(store), usecase.WithNotifier(notifier))

		summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
		gt.NoError(t, err)

		gt.Number(t, len(store.started)).Equal(2)
		for _, run := range store.started {
			gt.Value(t, run.Status).Equal(model.RunStatusRunning)
		}

		gt.Number(t, len(store.finished)).Equal(2)
		for _, run := range store.finished {
			gt.Value(t, run.Status).Equal(model.RunStatusSucceeded)
		}

		gt.Number(t, len(notifier.summaries)).Equal(1)
		gt.True(t, notifier.summaries[0] == summary)
	})

	t.Run("recording failures do not fail the publish", func(t *testing.T) {
		store := &fakeRunStore{failAll: true}
		notifier := &fakeNotifier{err: errors.New("slack down")}
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, validCreds,
			usecase.WithRunStore(store), usecase.WithNotifier(notifier))

		summary, err := uc.PublishSource(context.Background(), writeSource(t, testDefinition), nil)
		gt.NoError(t, err)
		gt.True(t, summary.Succeeded())
	})
}

func TestPublishRelease(t *testing.T) {
	info := &model.ReleaseInfo{
		Owner:       "m-mizutani",
		Repo:        "pipeek",
		CommitSHA:   "0a1b2c3d4e5f",
		TagName:     "v1.2.3",
		ReleaseName: "v1.2.3",
	}

	t.Run("downloads the release and runs the matrix", func(t *testing.T) {
		client := &fakeGitHubClient{data: createZipball(t, "m-mizutani-pipeek-0a1b2c3", map[string]string{
			"drover.toml": testDefinition,
			"setup.py":    "# build script\n",
		})}
		runner := newFakeRunner()
		uc := newTestPublish(t, runner, validCreds, usecase.WithGitHubClient(client))

		summary, err := uc.PublishRelease(context.Background(), info)
		gt.NoError(t, err)

		gt.Number(t, len(client.calls)).Equal(1)
		gt.Value(t, client.calls[0]).Equal("m-mizutani/pipeek@v1.2.3")

		gt.True(t, summary.Succeeded())
		gt.Number(t, len(summary.Runs)).Equal(2)
		gt.Value(t, summary.Trigger).Equal(model.TriggerRelease)
		gt.Value(t, summary.Release).Equal(info)

		for _, run := range summary.Runs {
			gt.Value(t, run.Trigger).Equal(model.TriggerRelease)
			gt.Value(t, run.Release).Equal(info)
			gt.Number(t, len(runner.byRun(run.ID, "upload-tool"))).Equal(1)
		}
	})

	t.Run("download failure is surfaced", func(t *testing.T) {
		client := &fakeGitHubClient{err: errors.New("boom")}
		uc := newTestPublish(t, newFakeRunner(), validCreds, usecase.WithGitHubClient(client))

		_, err := uc.PublishRelease(context.Background(), info)
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("failed to download zipball")
	})

	t.Run("release without pipeline definition fails", func(t *testing.T) {
		client := &fakeGitHubClient{data: createZipball(t, "m-mizutani-pipeek-0a1b2c3", map[string]string{
			"setup.py": "# build script\n",
		})}
		uc := newTestPublish(t, newFakeRunner(), validCreds, usecase.WithGitHubClient(client))

		_, err := uc.PublishRelease(context.Background(), info)
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("failed to load pipeline definition")
	})

	t.Run("no client configured", func(t *testing.T) {
		uc := newTestPublish(t, newFakeRunner(), validCreds)

		_, err := uc.PublishRelease(context.Background(), info)
		gt.Error(t, err)
	})
}
