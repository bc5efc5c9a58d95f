package extraction

import (
	"regexp"
	"strconv"
)

// Table reference patterns. The primary form covers "table 7",
// "table numéro 7", "table numero7" and "table: 7"; the prepositional
// fallback covers "à la table 7" and "pour la table 7". The primary form
// always wins when both are present.
var (
	tablePrimary       = regexp.MustCompile(`table\s*(?:numéro|numero)?\s*:?\s*(\d+)`)
	tablePrepositional = regexp.MustCompile(`(?:à|pour) la table\s*(\d+)`)
)

// ParseTable extracts a table number from a lower-cased utterance.
// Returns 0 when no pattern matches or the captured digits do not parse
// as an integer (a malformed capture falls through to the next pattern
// instead of failing the whole extraction).
func ParseTable(text string) int {
	if m := tablePrimary.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := tablePrepositional.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 0
}
