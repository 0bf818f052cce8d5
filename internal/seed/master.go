package seed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/argon2"

	"github.com/roach88/keyledger/internal/tracing"
)

// saltDomain separates the org-derived salt from every other hash in the system.
const saltDomain = "keyledger/v1/org-salt"

// saltSize is the Argon2 salt length in bytes.
const saltSize = 16

// KDFParams configures Argon2id. Memory is in KiB.
type KDFParams struct {
	Memory      uint32 `json:"memory_kib"`
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

// ProductionKDFParams is the memory-hard profile used for real bootstraps:
// 1 GiB, 10 passes, 4 lanes. Expect tens of seconds.
func ProductionKDFParams() KDFParams {
	return KDFParams{Memory: 1 << 20, Iterations: 10, Parallelism: 4}
}

// TestKDFParams is a cheap profile for tests and demos. Never use it for
// key material that matters.
func TestKDFParams() KDFParams {
	return KDFParams{Memory: 1024, Iterations: 1, Parallelism: 1}
}

// Validate checks the parameters argon2 requires.
func (p KDFParams) Validate() error {
	switch {
	case p.Iterations < 1:
		return fmt.Errorf("%w: iterations must be >= 1", ErrInvalidKDFParams)
	case p.Parallelism < 1:
		return fmt.Errorf("%w: parallelism must be >= 1", ErrInvalidKDFParams)
	case p.Memory < 8*uint32(p.Parallelism):
		return fmt.Errorf("%w: memory must be >= 8 KiB per lane", ErrInvalidKDFParams)
	}
	return nil
}

// MeetsProduction reports whether p is at least as strong as ProductionKDFParams.
func (p KDFParams) MeetsProduction() bool {
	prod := ProductionKDFParams()
	return p.Memory >= prod.Memory && p.Iterations >= prod.Iterations
}

// OrgSalt derives the Argon2 salt from the organization id so that the same
// (org, passphrase) pair always reproduces the same master seed.
func OrgSalt(orgID string) []byte {
	h := sha256.New()
	h.Write([]byte(saltDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(orgID))
	return h.Sum(nil)[:saltSize]
}

// MasterSeedResult is delivered by DeriveMasterSeedAsync.
type MasterSeedResult struct {
	Seed     *Secret
	Strength Strength
	Err      error
}

// DeriveMasterSeed runs the memory-hard KDF and blocks until it finishes or
// ctx is cancelled. The Strength is returned in every case, including
// rejection.
func DeriveMasterSeed(ctx context.Context, passphrase, orgID string, params KDFParams) (*Secret, Strength, error) {
	res := <-DeriveMasterSeedAsync(ctx, passphrase, orgID, params)
	return res.Seed, res.Strength, res.Err
}

// DeriveMasterSeedAsync validates the input synchronously and then runs
// Argon2id on a background goroutine. The returned channel receives exactly
// one result. If ctx is cancelled first the result carries ctx.Err() and a
// late seed is zeroed as soon as the KDF returns.
func DeriveMasterSeedAsync(ctx context.Context, passphrase, orgID string, params KDFParams) <-chan MasterSeedResult {
	out := make(chan MasterSeedResult, 1)

	strength := EstimateStrength(passphrase)
	if err := checkInput(strength, orgID, params); err != nil {
		out <- MasterSeedResult{Strength: strength, Err: err}
		return out
	}
	if err := ctx.Err(); err != nil {
		out <- MasterSeedResult{Strength: strength, Err: err}
		return out
	}

	ctx, span := tracing.Start(ctx, "seed", "DeriveMasterSeed",
		attribute.String("org_id", orgID),
		attribute.Int("kdf.memory_kib", int(params.Memory)),
		attribute.Int("kdf.iterations", int(params.Iterations)),
	)

	pw := []byte(normalizePassphrase(passphrase))
	done := make(chan *Secret, 1)
	go func() {
		start := time.Now()
		key := argon2.IDKey(pw, OrgSalt(orgID), params.Iterations, params.Memory, params.Parallelism, SecretSize)
		wipe(pw)
		s := newSecret("master", key)
		wipe(key)
		slog.Debug("master seed derived",
			"org_id", orgID,
			"duration", time.Since(start),
		)
		done <- s
	}()

	go func() {
		select {
		case s := <-done:
			tracing.End(span, nil)
			out <- MasterSeedResult{Seed: s, Strength: strength}
		case <-ctx.Done():
			err := ctx.Err()
			tracing.End(span, err)
			slog.Info("master seed derivation cancelled", "org_id", orgID, "event", "kdf_cancelled")
			out <- MasterSeedResult{Strength: strength, Err: err}
			// Argon2 cannot be interrupted; wipe whatever it eventually yields.
			go func() { (<-done).Zero() }()
		}
	}()

	return out
}

func checkInput(strength Strength, orgID string, params KDFParams) error {
	if !strength.Acceptable() {
		return &WeakPassphraseError{Strength: strength, Minimum: MinEntropyBits}
	}
	if orgID == "" {
		return ErrEmptyOrganization
	}
	return params.Validate()
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
