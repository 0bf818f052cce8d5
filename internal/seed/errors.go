package seed

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrganization is returned when no organization id is given.
	ErrEmptyOrganization = errors.New("seed: organization id is required")

	// ErrInvalidKDFParams is returned for KDF parameters argon2 cannot run with.
	ErrInvalidKDFParams = errors.New("seed: invalid KDF parameters")
)

// WeakPassphraseError rejects a passphrase below MinEntropyBits.
// Strength is attached so callers can re-prompt with feedback.
type WeakPassphraseError struct {
	Strength Strength
	Minimum  float64
}

func (e *WeakPassphraseError) Error() string {
	return fmt.Sprintf("passphrase too weak: %s, need at least %.0f bits", e.Strength, e.Minimum)
}

// IsWeakPassphrase reports whether err is (or wraps) a WeakPassphraseError.
func IsWeakPassphrase(err error) bool {
	var we *WeakPassphraseError
	return errors.As(err, &we)
}
