// Package store persists pipeline run records in SQLite for status
// reporting. The pipeline itself never reads them back: recorded runs
// have no influence on later executions.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite backed RunStore
type Store struct {
	db *sql.DB
}

var _ interfaces.RunStore = (*Store)(nil)

// Open opens the run database at path, creating the file and schema
// when missing
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("dir", dir))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open run database", goerr.V("path", path))
	}

	// Parallel matrix runs write concurrently; WAL plus a busy timeout
	// keeps writers from failing with SQLITE_BUSY.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to configure database", goerr.V("pragma", pragma))
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to apply schema", goerr.V("path", path))
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a run in running state
func (s *Store) StartRun(ctx context.Context, run *model.PipelineRun) error {
	var owner, repo, relTag string
	if run.Release != nil {
		owner = run.Release.Owner
		repo = run.Release.Repo
		relTag = run.Release.TagName
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, project, trigger_type, tag, release_owner, release_repo, release_tag, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Project, string(run.Trigger), run.Tag,
		owner, repo, relTag,
		string(run.Status), run.Error,
		timeToDB(run.StartedAt), timeToDB(run.FinishedAt),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert run", goerr.V("run_id", run.ID))
	}
	return nil
}

// FinishRun records the final state of a run together with its steps
// and artifacts
func (s *Store) FinishRun(ctx context.Context, run *model.PipelineRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), run.Error, timeToDB(run.FinishedAt), run.ID,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to update run", goerr.V("run_id", run.ID))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(interfaces.ErrRunNotFound, "cannot finish unknown run", goerr.V("run_id", run.ID))
	}

	for seq, step := range run.Steps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO steps (run_id, seq, name, command, exit_code, error, log_path, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, seq, string(step.Name), step.Command, step.ExitCode, step.Error,
			step.LogPath, timeToDB(step.StartedAt), timeToDB(step.FinishedAt),
		); err != nil {
			return goerr.Wrap(err, "failed to insert step", goerr.V("run_id", run.ID), goerr.V("step", step.Name))
		}
	}

	for _, a := range run.Artifacts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (run_id, name, path, size, sha256)
			VALUES (?, ?, ?, ?, ?)`,
			run.ID, a.Name, a.Path, a.Size, a.SHA256,
		); err != nil {
			return goerr.Wrap(err, "failed to insert artifact", goerr.V("run_id", run.ID), goerr.V("artifact", a.Name))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit run record", goerr.V("run_id", run.ID))
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. Steps and
// artifacts are not loaded; use GetRun for the full record.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*model.PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project, trigger_type, tag, release_owner, release_repo, release_tag, status, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*model.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}

// GetRun returns a single run with its steps and artifacts
func (s *Store) GetRun(ctx context.Context, id string) (*model.PipelineRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project, trigger_type, tag, release_owner, release_repo, release_tag, status, error, started_at, finished_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrRunNotFound, "no such run", goerr.V("run_id", id))
		}
		return nil, err
	}

	steps, err := s.loadSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Steps = steps

	artifacts, err := s.loadArtifacts(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Artifacts = artifacts

	return run, nil
}

func (s *Store) loadSteps(ctx context.Context, runID string) ([]*model.StepResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, command, exit_code, error, log_path, started_at, finished_at
		FROM steps WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query steps", goerr.V("run_id", runID))
	}
	defer rows.Close()

	var steps []*model.StepResult
	for rows.Next() {
		var step model.StepResult
		var name, startedAt, finishedAt string
		if err := rows.Scan(&name, &step.Command, &step.ExitCode, &step.Error, &step.LogPath, &startedAt, &finishedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan step", goerr.V("run_id", runID))
		}
		step.Name = model.StepName(name)
		step.StartedAt = timeFromDB(startedAt)
		step.FinishedAt = timeFromDB(finishedAt)
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

func (s *Store) loadArtifacts(ctx context.Context, runID string) ([]*model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, path, size, sha256 FROM artifacts WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query artifacts", goerr.V("run_id", runID))
	}
	defer rows.Close()

	var artifacts []*model.Artifact
	for rows.Next() {
		var a model.Artifact
		if err := rows.Scan(&a.Name, &a.Path, &a.Size, &a.SHA256); err != nil {
			return nil, goerr.Wrap(err, "failed to scan artifact", goerr.V("run_id", runID))
		}
		artifacts = append(artifacts, &a)
	}
	return artifacts, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.PipelineRun, error) {
	var run model.PipelineRun
	var trigger, status, owner, repo, relTag, startedAt, finishedAt string

	if err := row.Scan(&run.ID, &run.Project, &trigger, &run.Tag,
		&owner, &repo, &relTag, &status, &run.Error, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, goerr.Wrap(err, "failed to scan run")
	}

	run.Trigger = model.TriggerType(trigger)
	run.Status = model.RunStatus(status)
	run.StartedAt = timeFromDB(startedAt)
	run.FinishedAt = timeFromDB(finishedAt)
	if owner != "" || repo != "" {
		run.Release = &model.ReleaseInfo{Owner: owner, Repo: repo, TagName: relTag}
	}
	return &run, nil
}

func timeToDB(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func timeFromDB(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
