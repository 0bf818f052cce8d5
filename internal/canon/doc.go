// Package canon provides deterministic serialization for keyledger.
//
// Everything that is hashed or signed goes through MarshalCanonical, which
// produces RFC 8785 canonical JSON:
//   - object keys sorted by UTF-16 code units
//   - strings NFC normalized, no HTML escaping
//   - no floats, no nulls
//
// Content hashes use SHA-256 with a versioned domain prefix and a 0x00
// separator (see Hash).
package canon
