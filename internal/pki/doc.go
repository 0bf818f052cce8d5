// Package pki generates the three-tier certificate chain.
//
//	Root CA          pathlen 1, certSign+cRLSign, 20 years, signs intermediates
//	Intermediate CA  pathlen 0, certSign+cRLSign, 3 years, signs leaves
//	Leaf             not a CA, digitalSignature+keyEncipherment, 90 days
//
// Every certificate is a pure function of (seed, Params, issuer snapshot):
// Ed25519 signatures are deterministic, serials come from the seed, and the
// randomness x509.CreateCertificate asks for is a seed-derived stream. The
// same inputs produce byte-identical DER.
package pki
