package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// File points at an optional TOML file carrying default settings. Values set
// in the file override the built-in defaults of the corresponding flags.
type File struct {
	Path string
}

// Flags returns CLI flags for the configuration file
func (c *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to a TOML configuration file",
			Destination: &c.Path,
			Sources:     cli.EnvVars("TAGSMITH_CONFIG"),
		},
	}
}

// FileValues is the schema of the configuration file.
type FileValues struct {
	Remote       string `toml:"remote"`
	Trunk        string `toml:"trunk"`
	TagMessage   string `toml:"tag_message"`
	PollAttempts int64  `toml:"poll_attempts"`
	PollInterval string `toml:"poll_interval"`
}

// Load reads and parses the configuration file. A missing --config flag
// yields a nil result without error.
func (c *File) Load() (*FileValues, error) {
	if c.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read configuration file", goerr.V("path", c.Path))
	}
	var values FileValues
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, goerr.Wrap(err, "failed to parse configuration file", goerr.V("path", c.Path))
	}
	if values.PollInterval != "" {
		if _, err := time.ParseDuration(values.PollInterval); err != nil {
			return nil, goerr.Wrap(err, "invalid poll_interval in configuration file",
				goerr.V("poll_interval", values.PollInterval))
		}
	}
	return &values, nil
}

// Apply overlays the file values onto the flag-backed configurations.
func (v *FileValues) Apply(git *Git, retry *Retry) {
	if v == nil {
		return
	}
	if v.Remote != "" {
		git.Remote = v.Remote
	}
	if v.Trunk != "" {
		git.Trunk = v.Trunk
	}
	if v.PollAttempts > 0 {
		retry.PollAttempts = v.PollAttempts
	}
	if v.PollInterval != "" {
		if d, err := time.ParseDuration(v.PollInterval); err == nil {
			retry.PollInterval = d
		}
	}
}
