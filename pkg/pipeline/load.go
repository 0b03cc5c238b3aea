package pipeline

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// Load reads and validates a pipeline definition file
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read pipeline definition", goerr.V("path", path))
	}

	def, err := Parse(data)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid pipeline definition", goerr.V("path", path))
	}

	return def, nil
}

// Parse decodes and validates a pipeline definition from TOML data
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := toml.Unmarshal(data, &def); err != nil {
		return nil, goerr.Wrap(err, "failed to decode TOML")
	}

	def.applyDefaults()

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}
