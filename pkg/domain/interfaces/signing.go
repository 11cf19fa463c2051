package interfaces

import (
	"context"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/m-mizutani/tagsmith/pkg/domain/model"
)

// Signer exposes just enough of a signing environment for tag creation and
// verification. Key material stays owned by the environment.
type Signer interface {
	// SignKey returns the entity used to sign tag objects.
	SignKey() *openpgp.Entity

	// VerifyKeyring returns the armored public keyring used to verify
	// signatures produced by SignKey.
	VerifyKeyring() string
}

// SigningEnv is a provisioned, isolated signing environment handle for a
// single run.
type SigningEnv interface {
	Signer

	// Teardown scrubs the environment: the keyring directory is removed and
	// in-memory key material is discarded. It is idempotent, never fails the
	// run, and must be invocable on every exit path.
	Teardown(ctx context.Context)
}

// Provisioner creates signing environments from externally supplied secrets.
type Provisioner interface {
	Provision(ctx context.Context, secrets *model.SigningSecrets) (SigningEnv, error)
}
