// Package identity turns raw officer names and addresses into comparable
// canonical forms and scores how alike two canonical strings are. Everything
// here is pure and deterministic; fuzzy linking decisions belong to callers.
package identity

import (
	"regexp"
	"strings"
)

// Default similarity thresholds. Both are injectable via Matcher so tests
// and callers can tune sensitivity.
const (
	DefaultNameThreshold    = 0.85
	DefaultAddressThreshold = 0.80
)

var (
	honorificRe = regexp.MustCompile(`\b(mr|mrs|ms|dr|prof|jr|sr|ii|iii|iv)\b\.?`)
	// "#" needs its own alternative: \b cannot sit between a space and a
	// non-word character.
	unitTokenRe   = regexp.MustCompile(`\b(apt|suite|ste|unit)\s*\w+\b|#\s*\w+\b`)
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
)

// NormalizeName lower-cases a personal name, strips honorifics and
// generational suffixes, removes punctuation, and collapses whitespace.
// Total and idempotent; empty input yields the empty string.
func NormalizeName(name string) string {
	s := honorificRe.ReplaceAllString(strings.ToLower(name), "")
	s = punctuationRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeAddress lower-cases an address, drops unit/suite/apartment
// tokens, replaces punctuation with spaces, and collapses whitespace.
func NormalizeAddress(address string) string {
	s := unitTokenRe.ReplaceAllString(strings.ToLower(address), "")
	s = punctuationRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Similarity computes the Ratcliff/Obershelp ratio between two strings in
// [0,1]: twice the number of matching characters over the total length.
// Inputs are lower-cased first. Symmetric and reflexive.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	// Canonical ordering guarantees similarity(a,b) == similarity(b,a)
	// even when longest-substring tie-breaking differs.
	if a > b {
		a, b = b, a
	}
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

// matchingChars sums matched characters by recursively splitting around the
// longest common substring, as SequenceMatcher does.
func matchingChars(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	n := size
	n += matchingChars(a[:ai], b[:bi])
	n += matchingChars(a[ai+size:], b[bi+size:])
	return n
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// Matcher bundles the two similarity thresholds used to link identities.
type Matcher struct {
	NameThreshold    float64
	AddressThreshold float64
}

// NewMatcher returns a Matcher with the default thresholds.
func NewMatcher() Matcher {
	return Matcher{
		NameThreshold:    DefaultNameThreshold,
		AddressThreshold: DefaultAddressThreshold,
	}
}

// SameName reports whether two normalized names refer to the same identity.
func (m Matcher) SameName(a, b string) bool {
	return Similarity(a, b) >= m.NameThreshold
}

// SameAddress reports whether two normalized addresses match.
func (m Matcher) SameAddress(a, b string) bool {
	return Similarity(a, b) >= m.AddressThreshold
}

// Valid reports whether both thresholds sit in (0,1].
func (m Matcher) Valid() bool {
	return m.NameThreshold > 0 && m.NameThreshold <= 1 &&
		m.AddressThreshold > 0 && m.AddressThreshold <= 1
}
