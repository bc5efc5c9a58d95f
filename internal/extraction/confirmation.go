package extraction

import "strings"

// DefaultConfirmationPhrases are the idioms customers use to confirm an
// order. Both apostrophe spellings of "c'est bon" are listed because chat
// clients send either.
var DefaultConfirmationPhrases = []string{
	"je confirme",
	"je valide",
	"je prends",
	"valider",
	"c'est bon",
	"c’est bon",
	"ok",
	"parfait",
}

// ContainsConfirmation reports whether a lower-cased utterance contains one
// of the phrases. This is a plain substring check, not whole-token matching:
// the phrases are short idioms and substring matching tolerates punctuation
// stuck to them ("ok!", "parfait."). The trade-off is a known false positive
// when a phrase appears inside another word ("smoking" contains "ok").
func ContainsConfirmation(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
