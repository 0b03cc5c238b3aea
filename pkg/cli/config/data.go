package config

import (
	"path/filepath"

	"github.com/urfave/cli/v3"
)

// Data holds local state configuration. When no directory is set the
// run database and step logs are disabled.
type Data struct {
	Dir string
}

// Flags returns CLI flags for data directory configuration
func (c *Data) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory for the run database and step logs",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("DROVER_DATA_DIR"),
		},
	}
}

// Enabled reports whether a data directory was configured
func (c *Data) Enabled() bool {
	return c.Dir != ""
}

// DBPath returns the run database location under the data directory
func (c *Data) DBPath() string {
	return filepath.Join(c.Dir, "drover.db")
}

// LogDir returns the step log location under the data directory
func (c *Data) LogDir() string {
	return filepath.Join(c.Dir, "logs")
}
