package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for
// algorithm migration.
const (
	DomainEvent  = "keyledger/event/v1"
	DomainClaims = "keyledger/claims/v1"
	DomainSerial = "keyledger/serial/v1"
)

// Hash computes SHA-256(domain || 0x00 || data) and returns it hex encoded.
func Hash(domain string, data []byte) string {
	sum := Sum(domain, data)
	return hex.EncodeToString(sum[:])
}

// Sum is Hash without the hex encoding.
func Sum(domain string, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashValue canonicalizes v and hashes it under domain.
func HashValue(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return Hash(domain, data), nil
}
