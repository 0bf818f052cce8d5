// Package seed turns one passphrase into a tree of deterministic secrets.
//
// Pipeline:
//
//	passphrase + org id --Argon2id--> master seed (32 bytes)
//	master seed + label --HKDF-SHA256--> child seed (32 bytes)
//	child seed --Ed25519--> key material
//
// Identical inputs always reproduce identical outputs. Secrets are held in
// *Secret values that refuse serialization, redact themselves in logs and
// must be zeroed by their owner once dependent key material exists.
//
// The only fallible step is DeriveMasterSeed (weak passphrase, invalid KDF
// parameters, cancellation). Everything downstream is total.
package seed
