package model

import "io"

// Command describes a single process to execute for a pipeline step.
// Argv is passed to the OS directly, no shell is involved.
type Command struct {
	Argv   []string          // Program and arguments, Argv[0] is the program
	Dir    string            // Working directory
	Env    map[string]string // Extra environment, merged over the parent environment
	Stdout io.Writer
	Stderr io.Writer
}

// CommandResult represents the outcome of a completed process
type CommandResult struct {
	ExitCode int
}

// RegistryCredentials holds the credentials injected into the upload step
type RegistryCredentials struct {
	Username string `masq:"secret"`
	Password string `masq:"secret"`
}

// Configured reports whether both credential values are present
func (c *RegistryCredentials) Configured() bool {
	return c.Username != "" && c.Password != ""
}
