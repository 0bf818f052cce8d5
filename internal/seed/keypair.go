package seed

import (
	"crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
)

// AlgorithmEd25519 is the only key algorithm generated from seeds.
const AlgorithmEd25519 = "Ed25519"

// KeyMaterial is an Ed25519 keypair derived from a seed.
type KeyMaterial struct {
	// ID is "ed25519:" followed by the first 16 bytes of SHA-256(public key), hex.
	ID        string
	Algorithm string
	Public    ed25519.PublicKey

	private ed25519.PrivateKey
}

// GenerateKeypair derives an Ed25519 keypair from s. Same seed, same keypair.
// The caller remains responsible for zeroing s.
func GenerateKeypair(s *Secret) KeyMaterial {
	s.mustLive()
	priv := ed25519.NewKeyFromSeed(s.b[:])
	pub := priv.Public().(ed25519.PublicKey)
	return KeyMaterial{
		ID:        KeyID(pub),
		Algorithm: AlgorithmEd25519,
		Public:    pub,
		private:   priv,
	}
}

// KeyID fingerprints a public key.
func KeyID(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return "ed25519:" + hex.EncodeToString(sum[:16])
}

// Signer exposes the private key as a crypto.Signer. It returns nil after Zero.
func (k KeyMaterial) Signer() crypto.Signer {
	if k.private == nil {
		return nil
	}
	return k.private
}

// Zero wipes the private half in place. Copies of KeyMaterial share the
// underlying array, so zeroing one zeroes all.
func (k *KeyMaterial) Zero() {
	for i := range k.private {
		k.private[i] = 0
	}
	k.private = nil
}
