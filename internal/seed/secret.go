package seed

import (
	"crypto/subtle"
	"errors"
	"log/slog"
)

// SecretSize is the size in bytes of every master and derived seed.
const SecretSize = 32

// ErrSecretSerialization is returned when something tries to JSON-encode a Secret.
var ErrSecretSerialization = errors.New("seed: secrets cannot be serialized")

// Secret is a 256-bit seed. The zero value is not usable; secrets come from
// DeriveMasterSeed or DeriveChild.
type Secret struct {
	b      [SecretSize]byte
	path   string
	zeroed bool
}

// Path is the derivation path that produced the secret ("master" for a root).
// It is not secret.
func (s *Secret) Path() string { return s.path }

// Bytes exposes the raw seed. The returned slice aliases the secret and is
// wiped by Zero; callers must not retain it.
func (s *Secret) Bytes() []byte {
	s.mustLive()
	return s.b[:]
}

// Zero overwrites the secret. Zero is idempotent.
func (s *Secret) Zero() {
	if s == nil {
		return
	}
	for i := range s.b {
		s.b[i] = 0
	}
	s.zeroed = true
}

// Zeroed reports whether Zero has been called.
func (s *Secret) Zeroed() bool { return s.zeroed }

// Equal compares two secrets in constant time.
func (s *Secret) Equal(o *Secret) bool {
	if s == nil || o == nil {
		return s == o
	}
	return subtle.ConstantTimeCompare(s.b[:], o.b[:]) == 1
}

// String never reveals the seed.
func (s *Secret) String() string { return "[redacted]" }

// LogValue keeps secrets out of structured logs.
func (s *Secret) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", s.path),
		slog.String("seed", "[redacted]"),
	)
}

// MarshalJSON refuses to serialize the secret.
func (s *Secret) MarshalJSON() ([]byte, error) {
	return nil, ErrSecretSerialization
}

// mustLive panics on use after Zero. Reading a wiped seed would silently
// derive keys from all-zero material.
func (s *Secret) mustLive() {
	if s.zeroed {
		panic("seed: use of zeroed secret " + s.path)
	}
}

func newSecret(path string, b []byte) *Secret {
	s := &Secret{path: path}
	copy(s.b[:], b)
	return s
}
