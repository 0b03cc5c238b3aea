package config

import (
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Registry holds package registry credentials. Both values are optional
// at flag level so that build-only invocations work without them; the
// upload step checks for their presence at run time.
type Registry struct {
	Username string
	Password string `masq:"secret"`
}

// Flags returns CLI flags for registry configuration
func (c *Registry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "registry-username",
			Usage:       "Package registry username",
			Destination: &c.Username,
			Sources:     cli.EnvVars("DROVER_REGISTRY_USERNAME"),
		},
		&cli.StringFlag{
			Name:        "registry-password",
			Usage:       "Package registry password or API token",
			Destination: &c.Password,
			Sources:     cli.EnvVars("DROVER_REGISTRY_PASSWORD"),
		},
	}
}

// Credentials returns the configured credential pair
func (c *Registry) Credentials() model.RegistryCredentials {
	return model.RegistryCredentials{
		Username: c.Username,
		Password: c.Password,
	}
}
