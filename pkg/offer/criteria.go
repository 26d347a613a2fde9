package offer

import "strings"

// Criteria is the operator-configured conjunctive filter applied to
// extracted offers. It is loaded once at startup and never mutated.
type Criteria struct {
	// MaxPrice is an exclusive upper bound for priced items.
	MaxPrice float64
	// Category must match the extracted category exactly.
	Category Category
	// LocationTerms accepts a location containing at least one term,
	// compared case-insensitively.
	LocationTerms []string
	// NameTerms accepts an item name containing at least one term,
	// compared case-insensitively.
	NameTerms []string
}

// Matches reports whether an offer satisfies every criterion.
//
// The evaluation is a strict conjunction: an absent field fails its
// predicate, it never defaults to accepted.
func (c Criteria) Matches(o Offer) bool {
	return c.priceAccepted(o) && c.categoryAccepted(o) && c.locationAccepted(o) && c.nameAccepted(o)
}

// priceAccepted accepts giveaways unconditionally and priced items
// strictly below the bound. Textual qualifiers such as "negotiable"
// never pass; the extractor is not trusted to have zeroed giveaway
// prices, so Free is checked first.
func (c Criteria) priceAccepted(o Offer) bool {
	if o.Free {
		return true
	}
	if o.Price == nil || !o.Price.Numeric {
		return false
	}

	return o.Price.Amount < c.MaxPrice
}

func (c Criteria) categoryAccepted(o Offer) bool {
	return o.Category != "" && o.Category == c.Category
}

func (c Criteria) locationAccepted(o Offer) bool {
	return containsAnyFold(o.Location, c.LocationTerms)
}

func (c Criteria) nameAccepted(o Offer) bool {
	return containsAnyFold(o.Name, c.NameTerms)
}

// containsAnyFold reports whether value contains at least one of the
// terms under case-insensitive comparison. An empty value or an empty
// term set never matches.
func containsAnyFold(value string, terms []string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return false
	}

	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(value, term) {
			return true
		}
	}

	return false
}
