package extraction

import (
	"regexp"
	"strings"
)

// Vocabulary is an ordered list of canonical terms for one order attribute.
// Terms may be multi-word ("viande hachée"); spelling variants must be listed
// explicitly, there is no fuzzy matching. Matching is whole-token: a term
// never matches as a substring of a longer word, and boundaries are
// unicode-aware so accented terms behave like plain ones.
type Vocabulary struct {
	Name  string
	Terms []string

	patterns []*regexp.Regexp
}

// NewVocabulary compiles a vocabulary. Term order is significant: FirstMatch
// and AllMatches both honour it.
func NewVocabulary(name string, terms []string) *Vocabulary {
	v := &Vocabulary{Name: name, Terms: terms}
	for _, term := range terms {
		v.patterns = append(v.patterns, wholeTokenPattern(term))
	}
	return v
}

// wholeTokenPattern matches term bounded by non letter/digit runes or the
// text edges. \b is ASCII-only in Go regexp, which breaks on accented terms,
// hence the explicit boundary classes.
func wholeTokenPattern(term string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(strings.ToLower(term))
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + quoted + `(?:$|[^\p{L}\p{N}])`)
}

// FirstMatch returns the first term, in vocabulary order, present in text
// as a whole token, or "" when none matches. text must be lower-cased.
func (v *Vocabulary) FirstMatch(text string) string {
	for i, p := range v.patterns {
		if p.MatchString(text) {
			return v.Terms[i]
		}
	}
	return ""
}

// AllMatches returns every term present in text, in vocabulary order.
// text must be lower-cased. Returns nil when nothing matches.
func (v *Vocabulary) AllMatches(text string) []string {
	var found []string
	for i, p := range v.patterns {
		if p.MatchString(text) {
			found = append(found, v.Terms[i])
		}
	}
	return found
}
