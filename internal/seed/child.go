package seed

import (
	"crypto/sha256"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	childInfo  = "keyledger/v1/child"
	streamInfo = "keyledger/v1/stream"
)

// DeriveChild expands parent into the child seed for label. Distinct labels
// give independent seeds; the same (parent, label) always gives the same one.
//
// Labels conventionally form a slash-separated path, e.g. "pki/root" or
// "nats/account/engineering". DeriveChild panics if parent was zeroed.
func DeriveChild(parent *Secret, label string) *Secret {
	parent.mustLive()

	r := hkdf.New(sha256.New, parent.b[:], nil, infoFor(childInfo, label))
	var buf [SecretSize]byte
	// HKDF-SHA256 yields up to 8160 bytes; 32 can never fail.
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		panic("seed: hkdf expand: " + err.Error())
	}

	child := newSecret(joinPath(parent.path, label), buf[:])
	wipe(buf[:])
	return child
}

// DerivePath applies DeriveChild once per label, zeroing the intermediate
// seeds along the way. DerivePath(s) with no labels returns a copy of s.
func DerivePath(parent *Secret, labels ...string) *Secret {
	parent.mustLive()
	cur := newSecret(parent.path, parent.b[:])
	for _, l := range labels {
		next := DeriveChild(cur, l)
		cur.Zero()
		cur = next
	}
	return cur
}

// Stream returns a deterministic byte stream bound to (s, label), for APIs
// that insist on an io.Reader of randomness. It yields at most 8160 bytes.
// The stream keys off a copy of s, so zeroing s afterwards is safe.
func Stream(s *Secret, label string) io.Reader {
	s.mustLive()
	key := make([]byte, SecretSize)
	copy(key, s.b[:])
	return hkdf.Expand(sha256.New, key, infoFor(streamInfo, label))
}

func infoFor(domain, label string) []byte {
	info := make([]byte, 0, len(domain)+1+len(label))
	info = append(info, domain...)
	info = append(info, 0x00)
	info = append(info, label...)
	return info
}

func joinPath(parent, label string) string {
	if parent == "" || parent == "master" {
		return label
	}
	return strings.TrimSuffix(parent, "/") + "/" + label
}
