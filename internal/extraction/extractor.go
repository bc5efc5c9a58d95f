package extraction

import "strings"

// Default vocabularies of the venue. Spelling variants are separate terms on
// purpose ("viande hachée"/"viande hachee", "lettuce"/"laitue"); matching is
// exact, so every accepted spelling has to be listed.
var (
	DefaultDishes     = []string{"tacos", "sandwich"}
	DefaultMeats      = []string{"thon", "poulet", "viande hachée", "viande hachee"}
	DefaultSauces     = []string{"mayonnaise", "ketchup", "algerienne", "biggy"}
	DefaultVegetables = []string{"tomate", "oignon", "carotte", "lettuce", "laitue"}
	DefaultSizes      = []string{"petit", "moyen", "grand", "normal"}
)

// Extractor turns free-form conversational text into a CandidateOrder.
// It is a pure composition of the vocabulary matcher, the table parser and
// the confirmation detector: no I/O, and the same text always yields the
// same candidate.
type Extractor struct {
	dishes        *Vocabulary
	meats         *Vocabulary
	sauces        *Vocabulary
	vegetables    *Vocabulary
	sizes         *Vocabulary
	confirmations []string
}

// Config carries the configured vocabularies for an Extractor. Empty slices
// fall back to the venue defaults.
type Config struct {
	Dishes        []string
	Meats         []string
	Sauces        []string
	Vegetables    []string
	Sizes         []string
	Confirmations []string
}

// NewExtractor builds an extractor from the configured vocabularies.
func NewExtractor(cfg Config) *Extractor {
	if len(cfg.Dishes) == 0 {
		cfg.Dishes = DefaultDishes
	}
	if len(cfg.Meats) == 0 {
		cfg.Meats = DefaultMeats
	}
	if len(cfg.Sauces) == 0 {
		cfg.Sauces = DefaultSauces
	}
	if len(cfg.Vegetables) == 0 {
		cfg.Vegetables = DefaultVegetables
	}
	if len(cfg.Sizes) == 0 {
		cfg.Sizes = DefaultSizes
	}
	if len(cfg.Confirmations) == 0 {
		cfg.Confirmations = DefaultConfirmationPhrases
	}
	return &Extractor{
		dishes:        NewVocabulary("plats", cfg.Dishes),
		meats:         NewVocabulary("viandes", cfg.Meats),
		sauces:        NewVocabulary("sauces", cfg.Sauces),
		vegetables:    NewVocabulary("legumes", cfg.Vegetables),
		sizes:         NewVocabulary("tailles", cfg.Sizes),
		confirmations: cfg.Confirmations,
	}
}

// Extract parses one utterance into a CandidateOrder. The text is
// lower-cased once here; the component matchers all expect lower-cased input.
func (e *Extractor) Extract(text string) CandidateOrder {
	text = strings.ToLower(text)
	return CandidateOrder{
		Dish:       e.dishes.FirstMatch(text),
		Meat:       e.meats.FirstMatch(text),
		Sauces:     e.sauces.AllMatches(text),
		Vegetables: e.vegetables.AllMatches(text),
		Size:       e.sizes.FirstMatch(text),
		Table:      ParseTable(text),
		Confirmed:  ContainsConfirmation(text, e.confirmations),
	}
}

// IsConfirmation reports whether the utterance signals confirmation intent,
// without running the full extraction.
func (e *Extractor) IsConfirmation(text string) bool {
	return ContainsConfirmation(strings.ToLower(text), e.confirmations)
}
