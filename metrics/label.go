package metrics

import (
	"strings"
)

// CanonicalLabel lowercases s, turns spaces and dashes into underscores and drops anything else
// Prometheus would reject in a metric or label name.
func CanonicalLabel(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ' || r == '-':
			return '_'
		}
		return -1
	}, s)
}

// CanonicalLabels applies CanonicalLabel to every name, keeping order.
func CanonicalLabels(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = CanonicalLabel(n)
	}
	return out
}
