package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
)

// Signing holds the externally supplied signing secrets. The flag values are
// only read through Secrets(); they are never logged (the logger masks the
// SigningSecrets type).
type Signing struct {
	privateKey string
	passphrase string
	keyID      string
}

// Flags returns CLI flags for signing configuration
func (c *Signing) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gpg-private-key",
			Usage:       "ASCII-armored GPG private key",
			Required:    true,
			Destination: &c.privateKey,
			Sources:     cli.EnvVars("TAGSMITH_GPG_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "gpg-passphrase",
			Usage:       "Passphrase for the GPG private key",
			Required:    true,
			Destination: &c.passphrase,
			Sources:     cli.EnvVars("TAGSMITH_GPG_PASSPHRASE"),
		},
		&cli.StringFlag{
			Name:        "gpg-key-id",
			Usage:       "Identifier of the signing key (long key ID or fingerprint)",
			Required:    true,
			Destination: &c.keyID,
			Sources:     cli.EnvVars("TAGSMITH_GPG_KEY_ID"),
		},
	}
}

// Secrets returns a fresh copy of the signing secrets. Each publication run
// owns and clears its own copy.
func (c *Signing) Secrets() *model.SigningSecrets {
	return &model.SigningSecrets{
		PrivateKey: []byte(c.privateKey),
		Passphrase: []byte(c.passphrase),
		KeyID:      c.keyID,
	}
}
