package config

import (
	"github.com/urfave/cli/v3"
)

// Trigger describes where the merge event comes from: either a GitHub Actions
// event payload file, or explicit branch/merged flags.
type Trigger struct {
	EventPath string
	Branch    string
	Merged    bool
}

// Flags returns CLI flags for trigger configuration
func (c *Trigger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "event-payload",
			Usage:       "Path to the GitHub Actions event payload file",
			Destination: &c.EventPath,
			Sources:     cli.EnvVars("TAGSMITH_EVENT_PAYLOAD", "GITHUB_EVENT_PATH"),
		},
		&cli.StringFlag{
			Name:        "branch",
			Usage:       "Source branch of the merged pull request (when no event payload is given)",
			Destination: &c.Branch,
			Sources:     cli.EnvVars("TAGSMITH_BRANCH"),
		},
		&cli.BoolFlag{
			Name:        "merged",
			Usage:       "Merge-completion flag of the trigger event (when no event payload is given)",
			Destination: &c.Merged,
			Sources:     cli.EnvVars("TAGSMITH_MERGED"),
		},
	}
}
