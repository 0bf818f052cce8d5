// Package bootstrap turns a passphrase and a parameter document into a
// complete organization: certificate hierarchy, per-person keys and token
// plans, message-bus identities and an export manifest.
//
// Generation is a pure function of the master seed and the parameters. The
// whole result is committed as one engine command under a single
// correlation id, so a failed bootstrap leaves the log untouched. Public
// artifacts are written only after the commit succeeds.
package bootstrap
