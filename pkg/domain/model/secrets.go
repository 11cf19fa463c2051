package model

// SigningSecrets carries the externally supplied key material for one
// publication run. Values must never be written to any log or output; the
// logger masks this type and the `masq` tagged fields.
type SigningSecrets struct {
	PrivateKey []byte `masq:"secret"` // ASCII-armored private key
	Passphrase []byte `masq:"secret"` // Passphrase for the private key
	KeyID      string // Key identifier (long key ID or fingerprint)
}

// Clear zeroes the secret buffers. Safe to call multiple times.
func (s *SigningSecrets) Clear() {
	for i := range s.PrivateKey {
		s.PrivateKey[i] = 0
	}
	for i := range s.Passphrase {
		s.Passphrase[i] = 0
	}
	s.PrivateKey = nil
	s.Passphrase = nil
	s.KeyID = ""
}
