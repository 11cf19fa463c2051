package signing_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
	"github.com/m-mizutani/tagsmith/pkg/domain/types"
	"github.com/m-mizutani/tagsmith/pkg/infra/signing"
)

const testPassphrase = "correct horse battery staple"

// generateTestKey creates an armored, passphrase-protected private key and
// returns it together with the primary key ID.
func generateTestKey(t *testing.T) ([]byte, string) {
	t.Helper()

	cfg := &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA}
	entity, err := openpgp.NewEntity("Release Bot", "", "release@example.com", cfg)
	gt.NoError(t, err)

	gt.NoError(t, entity.PrivateKey.Encrypt([]byte(testPassphrase)))
	for i := range entity.Subkeys {
		sk := &entity.Subkeys[i]
		if sk.PrivateKey != nil {
			gt.NoError(t, sk.PrivateKey.Encrypt([]byte(testPassphrase)))
		}
	}

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	gt.NoError(t, err)
	gt.NoError(t, entity.SerializePrivateWithoutSigning(aw, nil))
	gt.NoError(t, aw.Close())

	return buf.Bytes(), entity.PrimaryKey.KeyIdString()
}

func testSecrets(t *testing.T) *model.SigningSecrets {
	t.Helper()
	key, keyID := generateTestKey(t)
	return &model.SigningSecrets{
		PrivateKey: key,
		Passphrase: []byte(testPassphrase),
		KeyID:      keyID,
	}
}

func TestProvision(t *testing.T) {
	ctx := context.Background()

	k, err := signing.Provision(ctx, testSecrets(t))
	gt.NoError(t, err)
	t.Cleanup(func() { k.Teardown(ctx) })

	gt.Value(t, k.SignKey()).NotNil()
	gt.True(t, strings.Contains(k.VerifyKeyring(), "PGP PUBLIC KEY BLOCK"))

	info := gt.R1(os.Stat(k.Dir())).NoError(t)
	gt.True(t, info.IsDir())
	gt.Value(t, info.Mode().Perm()).Equal(0700)

	keyring := gt.R1(os.Stat(filepath.Join(k.Dir(), "secring.asc"))).NoError(t)
	gt.Value(t, keyring.Mode().Perm()).Equal(0600)
}

func TestProvision_KeyIDFormats(t *testing.T) {
	ctx := context.Background()
	key, keyID := generateTestKey(t)

	tests := []struct {
		name  string
		keyID string
	}{
		{name: "long key ID", keyID: keyID},
		{name: "lowercase", keyID: strings.ToLower(keyID)},
		{name: "0x prefix", keyID: "0x" + keyID},
		{name: "short key ID", keyID: keyID[len(keyID)-8:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := signing.Provision(ctx, &model.SigningSecrets{
				PrivateKey: key,
				Passphrase: []byte(testPassphrase),
				KeyID:      tt.keyID,
			})
			gt.NoError(t, err)
			k.Teardown(ctx)
		})
	}
}

func TestTeardown(t *testing.T) {
	ctx := context.Background()

	k, err := signing.Provision(ctx, testSecrets(t))
	gt.NoError(t, err)

	dir := k.Dir()
	k.Teardown(ctx)

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("keyring directory still exists after teardown: %s", dir)
	}
	gt.Value(t, k.SignKey()).Nil()
	gt.Value(t, k.VerifyKeyring()).Equal("")

	// Teardown is idempotent.
	k.Teardown(ctx)
}

func TestProvision_Failures(t *testing.T) {
	ctx := context.Background()
	key, keyID := generateTestKey(t)

	tests := []struct {
		name    string
		secrets *model.SigningSecrets
	}{
		{
			name: "wrong passphrase",
			secrets: &model.SigningSecrets{
				PrivateKey: key,
				Passphrase: []byte("not the passphrase"),
				KeyID:      keyID,
			},
		},
		{
			name: "key ID mismatch",
			secrets: &model.SigningSecrets{
				PrivateKey: key,
				Passphrase: []byte(testPassphrase),
				KeyID:      "FFFFFFFFFFFFFFFF",
			},
		},
		{
			name: "empty key ID",
			secrets: &model.SigningSecrets{
				PrivateKey: key,
				Passphrase: []byte(testPassphrase),
				KeyID:      "",
			},
		},
		{
			name: "garbage key material",
			secrets: &model.SigningSecrets{
				PrivateKey: []byte("this is not a PGP key"),
				Passphrase: []byte(testPassphrase),
				KeyID:      keyID,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := signing.Provision(ctx, tt.secrets)
			gt.Error(t, err)
			gt.Value(t, k).Nil()
			if !errors.Is(err, types.ErrSigningSetupFailed) {
				t.Errorf("error = %v, want ErrSigningSetupFailed", err)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	env, err := signing.NewFactory().Provision(ctx, testSecrets(t))
	gt.NoError(t, err)
	defer env.Teardown(ctx)

	gt.Value(t, env.SignKey()).NotNil()
}
