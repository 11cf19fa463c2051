package signing

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagsmith/pkg/domain/interfaces"
	"github.com/m-mizutani/tagsmith/pkg/domain/model"
	"github.com/m-mizutani/tagsmith/pkg/domain/types"
)

const keyringFileName = "secring.asc"

// selfTestPayload is a throwaway message signed during provisioning to prove
// the imported key can sign non-interactively.
var selfTestPayload = []byte("tagsmith signing self-test")

// Keyring is an isolated signing environment for a single publication run.
// The keyring directory is exclusively owned by the run and is removed by
// Teardown regardless of the run's outcome.
type Keyring struct {
	dir        string
	entity     *openpgp.Entity
	pubKeyring string
	tornDown   bool
}

// Factory provisions Keyring instances.
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

// Provision implements interfaces.Provisioner.
func (f *Factory) Provision(ctx context.Context, secrets *model.SigningSecrets) (interfaces.SigningEnv, error) {
	return Provision(ctx, secrets)
}

// Provision creates the isolated keyring directory, imports and decrypts the
// supplied key material, and runs a signing self-test. On any failure the
// partially created directory is removed before returning.
func Provision(ctx context.Context, secrets *model.SigningSecrets) (*Keyring, error) {
	dir, err := os.MkdirTemp("", "tagsmith-keyring-*")
	if err != nil {
		return nil, goerr.Wrap(types.ErrSigningSetupFailed, "failed to create keyring directory",
			goerr.V("cause", err))
	}
	if err := os.Chmod(dir, 0700); err != nil {
		_ = os.RemoveAll(dir)
		return nil, goerr.Wrap(types.ErrSigningSetupFailed, "failed to restrict keyring directory permissions",
			goerr.V("cause", err))
	}

	k := &Keyring{dir: dir}
	if err := k.importKey(secrets); err != nil {
		k.Teardown(ctx)
		return nil, err
	}
	if err := k.selfTest(); err != nil {
		k.Teardown(ctx)
		return nil, err
	}

	ctxlog.From(ctx).Debug("Provisioned signing keyring",
		"keyring_dir", k.dir,
		"key_id", k.entity.PrimaryKey.KeyIdString(),
	)
	return k, nil
}

// SignKey returns the signing entity. It returns nil after Teardown.
func (k *Keyring) SignKey() *openpgp.Entity { return k.entity }

// VerifyKeyring returns the armored public keyring for signature checks.
func (k *Keyring) VerifyKeyring() string { return k.pubKeyring }

// Dir returns the keyring directory path.
func (k *Keyring) Dir() string { return k.dir }

// Teardown removes the keyring directory and discards in-memory key material.
// It runs at most once; later calls are no-ops. Failures are logged as
// warnings and never escalate.
func (k *Keyring) Teardown(ctx context.Context) {
	if k.tornDown {
		return
	}
	k.tornDown = true
	logger := ctxlog.From(ctx)

	k.entity = nil
	k.pubKeyring = ""

	if k.dir == "" {
		return
	}
	// Overwrite the keyring file before unlinking so the key material does
	// not linger on disk.
	scrubFile(filepath.Join(k.dir, keyringFileName))
	if err := os.RemoveAll(k.dir); err != nil {
		logger.Warn("Failed to remove keyring directory",
			"keyring_dir", k.dir,
			"error", err,
		)
		return
	}
	logger.Debug("Removed keyring directory", "keyring_dir", k.dir)
}

// importKey parses the armored private key, selects the entity matching the
// key identifier, decrypts it with the passphrase, and writes the keyring
// file into the isolated directory.
func (k *Keyring) importKey(secrets *model.SigningSecrets) error {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(secrets.PrivateKey))
	if err != nil {
		return goerr.Wrap(types.ErrSigningSetupFailed, "failed to read private key", goerr.V("cause", err))
	}
	if len(entities) == 0 {
		return goerr.Wrap(types.ErrSigningSetupFailed, "private key material contains no keys")
	}

	entity := selectEntity(entities, secrets.KeyID)
	if entity == nil {
		return goerr.Wrap(types.ErrSigningSetupFailed, "no key matches the given key identifier",
			goerr.V("key_id", secrets.KeyID))
	}
	if entity.PrivateKey == nil {
		return goerr.Wrap(types.ErrSigningSetupFailed, "key material has no private part",
			goerr.V("key_id", secrets.KeyID))
	}

	if entity.PrivateKey.Encrypted {
		if err := entity.PrivateKey.Decrypt(secrets.Passphrase); err != nil {
			return goerr.Wrap(types.ErrSigningSetupFailed, "failed to decrypt private key",
				goerr.V("key_id", secrets.KeyID), goerr.V("cause", err))
		}
	}
	for i := range entity.Subkeys {
		sk := &entity.Subkeys[i]
		if sk.PrivateKey != nil && sk.PrivateKey.Encrypted {
			if err := sk.PrivateKey.Decrypt(secrets.Passphrase); err != nil {
				return goerr.Wrap(types.ErrSigningSetupFailed, "failed to decrypt subkey",
					goerr.V("key_id", secrets.KeyID), goerr.V("cause", err))
			}
		}
	}

	// The keyring file keeps its original (passphrase-protected) form; the
	// decrypted key lives only in process memory.
	keyringPath := filepath.Join(k.dir, keyringFileName)
	if err := os.WriteFile(keyringPath, secrets.PrivateKey, 0600); err != nil {
		return goerr.Wrap(types.ErrSigningSetupFailed, "failed to write keyring file", goerr.V("cause", err))
	}

	pub, err := armorPublicKey(entity)
	if err != nil {
		return err
	}

	k.entity = entity
	k.pubKeyring = pub
	return nil
}

// selfTest signs a throwaway payload and verifies the signature against the
// imported key.
func (k *Keyring) selfTest() error {
	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, k.entity, bytes.NewReader(selfTestPayload), nil); err != nil {
		return goerr.Wrap(types.ErrSigningSetupFailed, "signing self-test failed", goerr.V("cause", err))
	}
	_, err := openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{k.entity},
		bytes.NewReader(selfTestPayload),
		bytes.NewReader(sig.Bytes()),
		nil,
	)
	if err != nil {
		return goerr.Wrap(types.ErrSigningSetupFailed, "self-test signature did not verify", goerr.V("cause", err))
	}
	return nil
}

// selectEntity finds the entity whose primary key matches the key identifier.
// The identifier may be a long key ID or a full fingerprint, with or without a
// 0x prefix, in any case.
func selectEntity(entities openpgp.EntityList, keyID string) *openpgp.Entity {
	want := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(keyID), "0x"))
	if want == "" {
		return nil
	}
	for _, e := range entities {
		fingerprint := strings.ToUpper(e.PrimaryKey.KeyIdString())
		full := strings.ToUpper(fingerprintHex(e))
		if strings.HasSuffix(fingerprint, want) || strings.HasSuffix(full, want) {
			return e
		}
	}
	return nil
}

func fingerprintHex(e *openpgp.Entity) string {
	const hexdigits = "0123456789ABCDEF"
	fp := e.PrimaryKey.Fingerprint
	buf := make([]byte, 0, len(fp)*2)
	for _, b := range fp {
		buf = append(buf, hexdigits[b>>4], hexdigits[b&0x0f])
	}
	return string(buf)
}

func armorPublicKey(entity *openpgp.Entity) (string, error) {
	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return "", goerr.Wrap(types.ErrSigningSetupFailed, "failed to armor public key", goerr.V("cause", err))
	}
	if err := entity.Serialize(aw); err != nil {
		return "", goerr.Wrap(types.ErrSigningSetupFailed, "failed to serialize public key", goerr.V("cause", err))
	}
	if err := aw.Close(); err != nil {
		return "", goerr.Wrap(types.ErrSigningSetupFailed, "failed to finalize public key armor", goerr.V("cause", err))
	}
	return buf.String(), nil
}

// scrubFile best-effort overwrites a file with zeros. Errors are ignored; the
// file is removed with its directory right after.
func scrubFile(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	zeros := make([]byte, info.Size())
	_, _ = f.WriteAt(zeros, 0)
}
