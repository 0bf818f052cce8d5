package seed

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MinEntropyBits is the rejection threshold for DeriveMasterSeed.
const MinEntropyBits = 40.0

// bitsPerWord is log2(7776), the entropy of one word drawn from a diceware list.
const bitsPerWord = 12.925

// minPhraseWords is the word count at which the word heuristic applies.
const minPhraseWords = 3

// Band is a qualitative passphrase strength classification.
type Band int

const (
	BandVeryWeak Band = iota
	BandWeak
	BandFair
	BandStrong
	BandVeryStrong
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandVeryWeak:
		return "very weak"
	case BandWeak:
		return "weak"
	case BandFair:
		return "fair"
	case BandStrong:
		return "strong"
	case BandVeryStrong:
		return "very strong"
	default:
		return "unknown"
	}
}

// Strength is the result of estimating a passphrase.
type Strength struct {
	Bits  float64 `json:"bits"`
	Band  Band    `json:"band"`
	Words int     `json:"words"` // distinct words; 0 when the phrase heuristic did not apply
}

// Acceptable reports whether the estimate clears MinEntropyBits.
func (s Strength) Acceptable() bool { return s.Bits >= MinEntropyBits }

// String renders "fair (52.3 bits)".
func (s Strength) String() string {
	return fmt.Sprintf("%s (%.1f bits)", s.Band, s.Bits)
}

// EstimateStrength scores a passphrase.
//
// Multi-word phrases (at least three words) are scored per distinct word;
// everything else by length times log2 of the character pool. When both
// apply the lower estimate wins.
func EstimateStrength(passphrase string) Strength {
	p := normalizePassphrase(passphrase)
	if p == "" {
		return Strength{Band: BandVeryWeak}
	}

	bits := charClassBits(p)
	total, words := countWords(p)
	if total >= minPhraseWords {
		// Repeated words add nothing, so only distinct ones are scored.
		bits = math.Min(bits, float64(words)*bitsPerWord)
	} else {
		words = 0
	}

	bits = math.Round(bits*10) / 10
	return Strength{Bits: bits, Band: bandFor(bits), Words: words}
}

func bandFor(bits float64) Band {
	switch {
	case bits < 28:
		return BandVeryWeak
	case bits < MinEntropyBits:
		return BandWeak
	case bits < 60:
		return BandFair
	case bits < 80:
		return BandStrong
	default:
		return BandVeryStrong
	}
}

func charClassBits(p string) float64 {
	var lower, upper, digit, symbol, other bool
	n := 0
	for _, r := range p {
		n++
		switch {
		case r > unicode.MaxASCII:
			other = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	pool := 0
	if lower {
		pool += 26
	}
	if upper {
		pool += 26
	}
	if digit {
		pool += 10
	}
	if symbol {
		pool += 33
	}
	if other {
		pool += 100
	}
	if pool < 2 {
		return 0
	}
	return float64(n) * math.Log2(float64(pool))
}

func countWords(p string) (total, distinct int) {
	fields := strings.FieldsFunc(strings.ToLower(p), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_' || r == '.'
	})
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		total++
		seen[f] = struct{}{}
	}
	return total, len(seen)
}

// normalizePassphrase trims and NFC-normalizes so that visually identical
// input typed on different platforms hashes identically.
func normalizePassphrase(p string) string {
	return norm.NFC.String(strings.TrimSpace(p))
}
