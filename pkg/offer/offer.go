// Package offer defines the structured facts extracted from a sale
// message and the operator criteria they are matched against.
package offer

import "strings"

// Category is the closed classification vocabulary for extracted items.
type Category string

const (
	CategoryFurniture   Category = "furniture"
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryOther       Category = "other"
)

// ParseCategory maps a raw oracle value onto the closed vocabulary.
//
// Anything outside the vocabulary is rejected rather than coerced.
func ParseCategory(value string) (Category, bool) {
	switch Category(strings.TrimSpace(value)) {
	case CategoryFurniture:
		return CategoryFurniture, true
	case CategoryElectronics:
		return CategoryElectronics, true
	case CategoryClothing:
		return CategoryClothing, true
	case CategoryOther:
		return CategoryOther, true
	default:
		return "", false
	}
}

// Price is either a numeric amount or a free-text qualifier such as
// "negotiable". Exactly one of the two representations is meaningful.
type Price struct {
	Amount    float64
	Qualifier string
	Numeric   bool
}

// NumericPrice returns a price carrying a concrete amount.
func NumericPrice(amount float64) *Price {
	return &Price{Amount: amount, Numeric: true}
}

// QualifierPrice returns a price carrying only a textual qualifier.
func QualifierPrice(text string) *Price {
	return &Price{Qualifier: text}
}

// Offer is a best-effort partial record of one item offered for sale.
// Every field besides Free may be absent; consumers must not assume
// any of them is populated.
type Offer struct {
	Name     string
	Category Category // empty when the oracle could not classify
	Price    *Price   // nil when absent
	Location string
	Free     bool
}

// EffectivePrice returns the amount the offer should be evaluated at.
// A giveaway costs zero no matter what price value was extracted.
func (o Offer) EffectivePrice() (float64, bool) {
	if o.Free {
		return 0, true
	}
	if o.Price != nil && o.Price.Numeric {
		return o.Price.Amount, true
	}

	return 0, false
}
