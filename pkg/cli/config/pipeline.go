package config

import (
	"github.com/m-mizutani/drover/pkg/pipeline"
	"github.com/urfave/cli/v3"
)

// Pipeline holds pipeline execution configuration
type Pipeline struct {
	File    string
	WorkDir string
}

// Flags returns CLI flags for pipeline configuration
func (c *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "pipeline-file",
			Usage:       "Pipeline definition file name at the repository root",
			Value:       pipeline.DefaultFileName,
			Destination: &c.File,
			Sources:     cli.EnvVars("DROVER_PIPELINE_FILE"),
		},
		&cli.StringFlag{
			Name:        "work-dir",
			Usage:       "Root directory for run workspaces (defaults to the system temp directory)",
			Destination: &c.WorkDir,
			Sources:     cli.EnvVars("DROVER_WORK_DIR"),
		},
	}
}
