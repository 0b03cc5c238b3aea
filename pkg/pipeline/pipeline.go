package pipeline

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultFileName is the pipeline definition file looked up at the
// repository root
const DefaultFileName = "drover.toml"

// Default environment variable names for registry credentials, used
// when the definition does not name its own
const (
	DefaultUsernameEnv = "REGISTRY_USERNAME"
	DefaultPasswordEnv = "REGISTRY_PASSWORD"
)

// Definition is the pipeline definition loaded from drover.toml
type Definition struct {
	Project   Project   `toml:"project"`
	Matrix    Matrix    `toml:"matrix"`
	Steps     Steps     `toml:"steps"`
	Artifacts Artifacts `toml:"artifacts"`
	Registry  Registry  `toml:"registry"`
}

// Project identifies the project being published
type Project struct {
	Name string `toml:"name"`
}

// Matrix lists the tag values to fan the pipeline out over. Tags are
// opaque strings; duplicates are executed as separate runs.
type Matrix struct {
	Tags []string `toml:"tags"`
}

// Steps holds the command lines for each pipeline step. Setup and
// install are optional and skipped when empty.
type Steps struct {
	Setup   string `toml:"setup"`
	Install string `toml:"install"`
	Build   string `toml:"build"`
	Upload  string `toml:"upload"`
}

// Artifacts describes how build outputs are collected from the run
// workspace
type Artifacts struct {
	Pattern string `toml:"pattern"`
}

// Registry names the environment variables the upload command reads
// its credentials from
type Registry struct {
	UsernameEnv string `toml:"username_env"`
	PasswordEnv string `toml:"password_env"`
}

var envNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the definition for required fields and returns an
// error describing the first problem found
func (d *Definition) Validate() error {
	if d.Project.Name == "" {
		return goerr.New("project.name is required")
	}
	if len(d.Matrix.Tags) == 0 {
		return goerr.New("matrix.tags must not be empty", goerr.V("project", d.Project.Name))
	}
	for _, tag := range d.Matrix.Tags {
		if tag == "" {
			return goerr.New("matrix.tags must not contain empty values", goerr.V("project", d.Project.Name))
		}
	}
	if d.Steps.Build == "" {
		return goerr.New("steps.build is required", goerr.V("project", d.Project.Name))
	}
	if d.Steps.Upload == "" {
		return goerr.New("steps.upload is required", goerr.V("project", d.Project.Name))
	}
	if d.Artifacts.Pattern == "" {
		return goerr.New("artifacts.pattern is required", goerr.V("project", d.Project.Name))
	}
	if !envNameRe.MatchString(d.Registry.UsernameEnv) {
		return goerr.New("registry.username_env is not a valid environment variable name",
			goerr.V("username_env", d.Registry.UsernameEnv))
	}
	if !envNameRe.MatchString(d.Registry.PasswordEnv) {
		return goerr.New("registry.password_env is not a valid environment variable name",
			goerr.V("password_env", d.Registry.PasswordEnv))
	}
	return nil
}

// applyDefaults fills in optional fields after decoding
func (d *Definition) applyDefaults() {
	if d.Registry.UsernameEnv == "" {
		d.Registry.UsernameEnv = DefaultUsernameEnv
	}
	if d.Registry.PasswordEnv == "" {
		d.Registry.PasswordEnv = DefaultPasswordEnv
	}
}
