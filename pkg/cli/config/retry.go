package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Retry holds the propagation confirmation retry policy
type Retry struct {
	PollAttempts int64
	PollInterval time.Duration
}

// Flags returns CLI flags for retry configuration
func (c *Retry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "poll-attempts",
			Usage:       "Maximum number of remote queries to confirm tag propagation",
			Value:       60,
			Destination: &c.PollAttempts,
			Sources:     cli.EnvVars("TAGSMITH_POLL_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "poll-interval",
			Usage:       "Delay between propagation confirmation attempts",
			Value:       time.Second,
			Destination: &c.PollInterval,
			Sources:     cli.EnvVars("TAGSMITH_POLL_INTERVAL"),
		},
	}
}
