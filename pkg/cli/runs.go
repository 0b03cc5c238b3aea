package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/store"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdRuns() *cli.Command {
	var dataCfg config.Data
	var limit int64

	listFlags := append([]cli.Flag{
		&cli.Int64Flag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of runs to list",
			Value:       20,
			Destination: &limit,
		},
	}, dataCfg.Flags()...)

	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect recorded pipeline runs",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List recent runs, newest first",
				Flags:   listFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					st, err := openRunStore(&dataCfg)
					if err != nil {
						return err
					}
					defer st.Close()

					runs, err := st.ListRuns(ctx, int(limit))
					if err != nil {
						return err
					}
					if len(runs) == 0 {
						fmt.Println("no runs recorded")
						return nil
					}

					for _, run := range runs {
						fmt.Printf("%s  %s %-16s %-8s %-15s %s\n",
							run.ID,
							statusString(run.Status),
							run.Tag,
							run.Trigger,
							humanize.Time(run.StartedAt),
							run.Duration().Round(time.Millisecond),
						)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Show one run with its steps and artifacts",
				ArgsUsage: "<run-id>",
				Flags:     dataCfg.Flags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					runID := c.Args().First()
					if runID == "" {
						return goerr.New("run ID is required")
					}

					st, err := openRunStore(&dataCfg)
					if err != nil {
						return err
					}
					defer st.Close()

					run, err := st.GetRun(ctx, runID)
					if err != nil {
						return err
					}

					printRun(run)
					return nil
				},
			},
		},
	}
}

func openRunStore(cfg *config.Data) (*store.Store, error) {
	if !cfg.Enabled() {
		return nil, goerr.New("data directory is not configured, set --data-dir or DROVER_DATA_DIR")
	}
	return store.Open(cfg.DBPath())
}

func printRun(run *model.PipelineRun) {
	fmt.Printf("Run:      %s\n", run.ID)
	fmt.Printf("Project:  %s\n", run.Project)

	trigger := string(run.Trigger)
	if run.Release != nil {
		trigger = fmt.Sprintf("%s (%s)", run.Trigger, run.Release.Slug())
	}
	fmt.Printf("Trigger:  %s\n", trigger)
	fmt.Printf("Tag:      %s\n", run.Tag)
	fmt.Printf("Status:   %s\n", statusString(run.Status))
	fmt.Printf("Started:  %s (%s)\n", run.StartedAt.Format(time.RFC3339), humanize.Time(run.StartedAt))
	fmt.Printf("Duration: %s\n", run.Duration().Round(time.Millisecond))

	if len(run.Steps) > 0 {
		fmt.Println("\nSteps:")
		for _, step := range run.Steps {
			mark := okMark
			if !step.Succeeded() {
				mark = failMark
			}

			detail := step.Command
			if step.Error != "" {
				detail = color.RedString(step.Error)
			}
			fmt.Printf("  %s %-10s %-8s %s\n", mark, step.Name, step.Duration().Round(time.Millisecond), detail)
			if step.LogPath != "" {
				fmt.Printf("      log: %s\n", step.LogPath)
			}
		}
	}

	if len(run.Artifacts) > 0 {
		fmt.Println("\nArtifacts:")
		for _, a := range run.Artifacts {
			fmt.Printf("  %s  %s  sha256:%s\n", a.Path, humanize.Bytes(uint64(a.Size)), a.SHA256)
		}
	}

	if run.Error != "" {
		fmt.Printf("\n%s\n", color.RedString(run.Error))
	}
}
