package config

import "github.com/urfave/cli/v3"

// Git holds repository configuration
type Git struct {
	RepoDir string
	Remote  string
	Trunk   string
	Token   string
}

// Flags returns CLI flags for repository configuration
func (c *Git) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repo-dir",
			Usage:       "Path to the local repository clone",
			Value:       ".",
			Destination: &c.RepoDir,
			Sources:     cli.EnvVars("TAGSMITH_REPO_DIR"),
		},
		&cli.StringFlag{
			Name:        "remote",
			Usage:       "Remote the tag is pushed to and confirmed against",
			Value:       "origin",
			Destination: &c.Remote,
			Sources:     cli.EnvVars("TAGSMITH_REMOTE"),
		},
		&cli.StringFlag{
			Name:        "trunk",
			Usage:       "Trunk branch whose head receives the release tag",
			Value:       "main",
			Destination: &c.Trunk,
			Sources:     cli.EnvVars("TAGSMITH_TRUNK"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "Token for authenticated push and remote queries",
			Destination: &c.Token,
			Sources:     cli.EnvVars("TAGSMITH_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
	}
}
