package extraction

import "strings"

// CandidateOrder is the structured order parsed from a single utterance.
// Optional fields are the zero value when the utterance does not mention them;
// Sauces and Vegetables keep vocabulary order so that display is deterministic.
type CandidateOrder struct {
	Dish       string
	Meat       string
	Sauces     []string
	Vegetables []string
	Size       string
	Table      int
	Confirmed  bool
}

// Required field labels as they appear in customer-facing responses.
const (
	FieldDish  = "plat"
	FieldMeat  = "viande"
	FieldSize  = "taille"
	FieldTable = "table"
)

// MissingFields returns the required fields that are still unset.
// Sauces and vegetables are optional and never reported here.
func (c CandidateOrder) MissingFields() []string {
	var missing []string
	if c.Dish == "" {
		missing = append(missing, FieldDish)
	}
	if c.Meat == "" {
		missing = append(missing, FieldMeat)
	}
	if c.Size == "" {
		missing = append(missing, FieldSize)
	}
	if c.Table == 0 {
		missing = append(missing, FieldTable)
	}
	return missing
}

// IsComplete reports whether all required fields are set.
func (c CandidateOrder) IsComplete() bool {
	return len(c.MissingFields()) == 0
}

// IsEmpty reports whether the utterance carried no order information at all.
func (c CandidateOrder) IsEmpty() bool {
	return c.Dish == "" && c.Meat == "" && c.Size == "" && c.Table == 0 &&
		len(c.Sauces) == 0 && len(c.Vegetables) == 0
}

// SaucesDisplay returns the sauces as a single display string.
func (c CandidateOrder) SaucesDisplay() string {
	return strings.Join(c.Sauces, ", ")
}

// VegetablesDisplay returns the vegetables as a single display string.
func (c CandidateOrder) VegetablesDisplay() string {
	return strings.Join(c.Vegetables, ", ")
}
