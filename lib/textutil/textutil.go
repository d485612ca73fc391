package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and removes every whitespace character,
// "Acme  Capital\n" and "ACME CAPITAL" normalize to the same string.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName returns true if the normalized name contains any of the
// normalized matchers.
func MatchName(name string, matchers ...string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		m = NormalizeName(m)
		if m == "" {
			continue
		}
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// TrimLeadingZeros strips leading zeros from a numeric identifier, an
// all-zero identifier becomes "0".
func TrimLeadingZeros(id string) string {
	id = strings.TrimSpace(id)
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" && id != "" {
		return "0"
	}
	return trimmed
}

// SameIdentifier compares two numeric identifiers ignoring zero padding.
func SameIdentifier(a, b string) bool {
	a = TrimLeadingZeros(a)
	return a != "" && a == TrimLeadingZeros(b)
}
