package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/notify"
	"github.com/m-mizutani/drover/pkg/infra/store"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdRun() *cli.Command {
	var (
		registryCfg config.Registry
		dataCfg     config.Data
		notifyCfg   config.Notify
		pipelineCfg config.Pipeline
	)

	var source string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "source",
			Aliases:     []string{"s"},
			Usage:       "Source directory containing the pipeline definition",
			Value:       ".",
			Destination: &source,
		},
		&cli.StringSliceFlag{
			Name:    "tag",
			Aliases: []string{"t"},
			Usage:   "Matrix tag to run (repeatable, defaults to the definition matrix)",
		},
	}
	flags = append(flags, registryCfg.Flags()...)
	flags = append(flags, dataCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the publish pipeline against a local source directory",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			opts := []usecase.PublishOption{}

			var logDir string
			if dataCfg.Enabled() {
				st, err := store.Open(dataCfg.DBPath())
				if err != nil {
					return goerr.Wrap(err, "failed to open run store")
				}
				defer st.Close()

				logDir = dataCfg.LogDir()
				opts = append(opts, usecase.WithRunStore(st))
			}

			if notifyCfg.SlackWebhookURL != "" {
				opts = append(opts, usecase.WithNotifier(notify.NewSlack(notifyCfg.SlackWebhookURL)))
			}

			publishUC := usecase.NewPublish(usecase.PublishConfig{
				DefinitionFile: pipelineCfg.File,
				WorkRoot:       pipelineCfg.WorkDir,
				LogDir:         logDir,
				Credentials:    registryCfg.Credentials(),
				EchoOutput:     true,
			}, opts...)

			summary, err := publishUC.PublishSource(ctx, source, c.StringSlice("tag"))
			if err != nil {
				return err
			}

			printSummary(summary)

			if !summary.Succeeded() {
				return goerr.New("publish finished with failed runs",
					goerr.V("failed", len(summary.FailedRuns())),
					goerr.V("total", len(summary.Runs)),
				)
			}
			return nil
		},
	}
}

var (
	okMark   = color.New(color.FgGreen, color.Bold).Sprint("✔")
	failMark = color.New(color.FgRed, color.Bold).Sprint("✖")
)

// statusString pads before colorizing so that escape codes do not
// throw off column alignment
func statusString(status model.RunStatus) string {
	switch status {
	case model.RunStatusSucceeded:
		return color.GreenString("%-9s", string(status))
	case model.RunStatusFailed:
		return color.RedString("%-9s", string(status))
	default:
		return color.YellowString("%-9s", string(status))
	}
}

func printSummary(summary *model.PublishSummary) {
	fmt.Println()
	for _, run := range summary.Runs {
		mark := okMark
		if run.Status != model.RunStatusSucceeded {
			mark = failMark
		}

		fmt.Printf("%s %-16s %s %s\n", mark, run.Tag, statusString(run.Status), run.Duration().Round(time.Millisecond))
		if run.Error != "" {
			fmt.Printf("    %s\n", color.RedString(run.Error))
		}
		for _, a := range run.Artifacts {
			fmt.Printf("    %s (%s)\n", a.Path, humanize.Bytes(uint64(a.Size)))
		}
	}

	fmt.Println()
	if failed := summary.FailedRuns(); len(failed) > 0 {
		color.Red("%d of %d run(s) failed after %s", len(failed), len(summary.Runs), summary.Duration().Round(time.Millisecond))
	} else {
		color.Green("%d run(s) succeeded in %s", len(summary.Runs), summary.Duration().Round(time.Millisecond))
	}
}
